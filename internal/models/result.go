package models

// Result: ответ биржи на торговую команду.
// Success=false означает, что биржа приняла запрос, но отказала (code != 0).
type Result struct {
	Success bool
	Code    int
	Msg     string
	OrderID string
	Raw     []byte
}
