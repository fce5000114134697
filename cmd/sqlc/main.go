// sqlc генерирует пакеты запросов для каждого queries.sql из .sqlc.base.yaml.
// Пакет получает имя каталога, в котором лежит файл запросов.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	baseConfigName = ".sqlc.base"
	tmpConfigName  = "sqlc.yaml"
)

func packageName(queriesFile string) string {
	return filepath.Base(filepath.Dir(queriesFile))
}

func writeConfig(version string, engine *viper.Viper, queriesFile string) (string, error) {
	engine.Set("queries", queriesFile)
	engine.Set("gen.go.package", packageName(queriesFile))
	engine.Set("gen.go.out", filepath.Dir(queriesFile))

	settings := engine.AllSettings()
	delete(settings, "source")

	bs, err := yaml.Marshal(map[string]any{
		"version": version,
		"sql":     []any{settings},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal sqlc config")
	}
	if err := os.WriteFile(tmpConfigName, bs, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", tmpConfigName)
	}
	return tmpConfigName, nil
}

func callSqlc(config string) error {
	out, err := exec.Command("sqlc", "generate", "--file", config).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "sqlc generate: %s", string(out))
	}
	return nil
}

func run() error {
	base := viper.New()
	base.SetConfigName(baseConfigName)
	base.SetConfigType("yaml")
	base.AddConfigPath(".")
	if err := base.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read base config")
	}

	patterns := base.GetStringSlice("sql.0.source")
	if len(patterns) == 0 {
		return errors.New("has no sql.0.source in config")
	}
	var files []string
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			return errors.Wrapf(err, "glob %s", pattern)
		}
		files = append(files, f...)
	}

	engine := base.Sub("sql.0")
	if engine == nil {
		return errors.New("has no sql.0 section in config")
	}
	// схема у postgres-бэкенда живёт в самом файле запросов
	schema := base.GetString("sql.0.schema")

	defer os.Remove(tmpConfigName)
	for _, file := range files {
		if schema == "" {
			engine.Set("schema", file)
		}
		config, err := writeConfig(base.GetString("version"), engine, file)
		if err != nil {
			return err
		}
		if err := callSqlc(config); err != nil {
			return err
		}
		fmt.Printf("%s file complete\n", file)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("done")
}
