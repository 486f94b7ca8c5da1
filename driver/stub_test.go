package driver

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// stubSession — скриптованная заглушка сессии для тестов.
// Ответы на запросы задаются очередями по командам; неизвестный
// запрос без ответа по умолчанию считается ошибкой теста.
type stubSession struct {
	idn      string
	writes   []string
	queries  []string
	replies  map[string][]string
	fixed    map[string]string
	writeErr map[string]error
	queryErr map[string]error
	closed   int
}

func newStubSession() *stubSession {
	return &stubSession{
		idn:      "Keysight Technologies,B2902A,MY51140000,3.4.2011.5100",
		replies:  make(map[string][]string),
		fixed:    make(map[string]string),
		writeErr: make(map[string]error),
		queryErr: make(map[string]error),
	}
}

// push добавляет ответ в очередь команды.
func (s *stubSession) push(cmd, reply string) {
	s.replies[cmd] = append(s.replies[cmd], reply)
}

func (s *stubSession) Write(cmd string) error {
	if err := s.writeErr[cmd]; err != nil {
		return err
	}
	s.writes = append(s.writes, cmd)
	return nil
}

func (s *stubSession) Query(cmd string) (string, error) {
	s.queries = append(s.queries, cmd)
	if err := s.queryErr[cmd]; err != nil {
		return "", err
	}
	if q := s.replies[cmd]; len(q) > 0 {
		s.replies[cmd] = q[1:]
		return q[0], nil
	}
	if reply, ok := s.fixed[cmd]; ok {
		return reply, nil
	}
	switch cmd {
	case "*IDN?":
		return s.idn, nil
	case ":SYST:ERR?":
		return `+0,"No error"`, nil
	}
	return "", fmt.Errorf("unexpected query %q", cmd)
}

func (s *stubSession) Close() error {
	s.closed++
	return nil
}

// countQueries возвращает число запросов указанной команды.
func (s *stubSession) countQueries(cmd string) int {
	n := 0
	for _, q := range s.queries {
		if q == cmd {
			n++
		}
	}
	return n
}

// hasWrite сообщает, была ли записана команда.
func (s *stubSession) hasWrite(cmd string) bool {
	for _, w := range s.writes {
		if w == cmd {
			return true
		}
	}
	return false
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAdapter(s *stubSession) (*Adapter, error) {
	return NewAdapter(s, testLogger(), SessionInfo{
		ResourceDescriptor: "STUB0::INSTR",
		OptionsString:      "Simulate=True",
	})
}
