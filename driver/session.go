package driver

// Session абстрагирует низкоуровневое соединение с прибором.
// Адаптер только заимствует сессию на время операций; владеет ей
// и закрывает ее клиент. Интерфейс намеренно узкий, чтобы тесты
// могли подставить скриптованную заглушку вместо VISA.
type Session interface {
	// Write отправляет команду прибору без чтения ответа.
	Write(cmd string) error
	// Query отправляет команду и блокируется до получения ответа.
	Query(cmd string) (string, error)
	// Close освобождает соединение. Повторный вызов безопасен.
	Close() error
}

// SessionInfo содержит сведения о соединении, известные только
// открывшей его стороне и попадающие в Identity.
type SessionInfo struct {
	ResourceDescriptor string
	OptionsString      string
}
