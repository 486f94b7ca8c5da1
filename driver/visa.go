package driver

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jpoirier/visa"
	"github.com/pkg/errors"
)

const readBufferSize = 4096

var (
	rmOnce   sync.Once
	rm       visa.Session
	rmStatus visa.Status
)

// VisaOptions задает параметры открытия VISA-сессии.
type VisaOptions struct {
	IDQuery   bool
	Reset     bool
	TimeoutMs uint32
}

// VisaSession реализует Session поверх библиотеки VISA.
// Используется при работе с реальным прибором; тесты подставляют
// заглушку через интерфейс Session.
type VisaSession struct {
	resourceName string
	instr        *visa.Object
	mu           sync.Mutex
}

// OpenVisaSession открывает соединение с прибором по VISA-адресу,
// выставляет таймаут ввода-вывода и, по запросу, выполняет *RST и *IDN?.
func OpenVisaSession(resourceName string, opts VisaOptions) (*VisaSession, error) {
	rmOnce.Do(func() {
		rm, rmStatus = visa.OpenDefaultRM()
	})
	if rmStatus != visa.SUCCESS {
		return nil, Errorf(KindConnection, "failed to open VISA resource manager: status=%d", int32(rmStatus))
	}

	instr, visaStatus := rm.Open(resourceName, uint32(visa.NULL), uint32(visa.NULL))
	if visaStatus != visa.SUCCESS {
		return nil, Errorf(KindConnection, "failed to open VISA resource %q: %s", resourceName, statusText(&instr, visaStatus))
	}

	vs := &VisaSession{resourceName: resourceName, instr: &instr}

	if opts.TimeoutMs > 0 {
		if status := instr.SetAttribute(visa.ATTR_TMO_VALUE, opts.TimeoutMs); status != visa.SUCCESS {
			vs.Close()
			return nil, Errorf(KindConnection, "failed to set IO timeout on %q: %s", resourceName, statusText(&instr, status))
		}
	}
	if opts.Reset {
		if err := vs.Write("*RST"); err != nil {
			vs.Close()
			return nil, Convert(err, KindConnection)
		}
	}
	if opts.IDQuery {
		if _, err := vs.Query("*IDN?"); err != nil {
			vs.Close()
			return nil, Convert(err, KindConnection)
		}
	}
	return vs, nil
}

// Write отправляет команду прибору.
func (vs *VisaSession) Write(cmd string) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.instr == nil {
		return Errorf(KindConnection, "VISA session to %q is closed", vs.resourceName)
	}
	payload := cmd + "\n"
	_, visaStatus := vs.instr.Write([]byte(payload), uint32(len(payload)))
	if visaStatus != visa.SUCCESS {
		visaErr := fmt.Errorf("%s", statusText(vs.instr, visaStatus))
		return errors.Wrapf(visaErr, "VISA error while writing %q command", cmd)
	}
	return nil
}

// Query отправляет команду и блокируется до ответа прибора.
func (vs *VisaSession) Query(cmd string) (string, error) {
	if err := vs.Write(cmd); err != nil {
		return "", err
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.instr == nil {
		return "", Errorf(KindConnection, "VISA session to %q is closed", vs.resourceName)
	}
	bytes, _, visaStatus := vs.instr.Read(readBufferSize)
	if visaStatus != visa.SUCCESS {
		visaErr := fmt.Errorf("%s", statusText(vs.instr, visaStatus))
		return "", errors.Wrapf(visaErr, "VISA error while reading response after %q command", cmd)
	}
	response := string(bytes)
	if len(response) == 0 {
		return "", errors.Errorf("empty response from instrument after %q command", cmd)
	}
	if idx := strings.IndexByte(response, '\n'); idx >= 0 {
		response = response[:idx]
	}
	return strings.TrimRight(response, "\r"), nil
}

// Close освобождает соединение. Повторный вызов безопасен.
func (vs *VisaSession) Close() error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.instr == nil {
		return nil
	}
	status := vs.instr.Close()
	vs.instr = nil
	if status != visa.SUCCESS {
		return Errorf(KindConnection, "failed to close VISA resource %q: status=%d", vs.resourceName, int32(status))
	}
	return nil
}

// statusText переводит код статуса VISA в короткое описание.
func statusText(instr *visa.Object, status visa.Status) string {
	desc, _ := instr.StatusDesc(status)
	if idx := strings.Index(desc, "."); idx > 0 {
		desc = desc[:idx]
	}
	return fmt.Sprintf("%d, %s", int32(status), desc)
}
