package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iwtcode/b2900Adapter/models"
)

// maxErrorDrain ограничивает число запросов очереди ошибок за один проход.
// Прибор, который никогда не возвращает код 0, не должен вешать вызывающего.
const maxErrorDrain = 32

// Adapter инкапсулирует логику работы с одним источником-измерителем.
// Сессию он заимствует у клиента и не закрывает сам.
type Adapter struct {
	session  Session
	logger   *logrus.Logger
	identity models.Identity
	caps     Capabilities
	channels []string
}

// NewAdapter создает адаптер: считывает идентификацию прибора,
// подбирает запись таблицы возможностей и однократно вычитывает
// очередь ошибок, чтобы убрать устаревшие отказы.
func NewAdapter(session Session, logger *logrus.Logger, info SessionInfo) (*Adapter, error) {
	a := &Adapter{session: session, logger: logger}

	idn, err := session.Query("*IDN?")
	if err != nil {
		return nil, Convert(err, KindConnection)
	}
	a.identity = parseIdentity(idn, info)
	a.caps = CapabilitiesFor(a.identity.InstrumentModel)

	a.channels = make([]string, a.caps.Channels)
	for i := range a.channels {
		a.channels[i] = fmt.Sprintf("Channel%d", i+1)
	}

	records, err := a.DrainErrors()
	if err != nil {
		return nil, err
	}
	if code, msg := firstFault(records); code != 0 {
		a.logger.WithFields(logrus.Fields{"code": code, "message": msg}).
			Warn("stale device errors drained on connect")
	}

	a.logger.WithFields(logrus.Fields{
		"vendor":   a.identity.Vendor,
		"model":    a.identity.InstrumentModel,
		"revision": a.identity.Revision,
		"resource": a.identity.ResourceDescriptor,
		"channels": a.caps.Channels,
	}).Info("instrument connected")

	return a, nil
}

// Identity возвращает идентификацию прибора.
func (a *Adapter) Identity() models.Identity {
	return a.identity
}

// Capabilities возвращает запись таблицы возможностей для этой модели.
func (a *Adapter) Capabilities() Capabilities {
	return a.caps
}

// ChannelNames возвращает имена доступных каналов.
func (a *Adapter) ChannelNames() []string {
	names := make([]string, len(a.channels))
	copy(names, a.channels)
	return names
}

// DrainErrors вычитывает очередь ошибок прибора до записи с кодом 0.
// Возвращает все вычитанные записи в порядке получения. Если очередь
// не опустела за maxErrorDrain запросов, возвращается ошибка вида Timeout.
func (a *Adapter) DrainErrors() ([]models.ErrorRecord, error) {
	records := make([]models.ErrorRecord, 0, 4)
	for i := 0; i < maxErrorDrain; i++ {
		raw, err := a.session.Query(":SYST:ERR?")
		if err != nil {
			return records, Convert(err, KindConnection)
		}
		rec, err := parseErrorRecord(raw)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
		if rec.Code == 0 {
			return records, nil
		}
		a.logger.WithFields(logrus.Fields{"code": rec.Code, "message": rec.Message}).
			Debug("device error drained")
	}
	last := records[len(records)-1]
	return records, Errorf(KindTimeout,
		"error queue did not report code 0 after %d queries (last code %d, %q)",
		maxErrorDrain, last.Code, last.Message)
}

// Calibrate запускает самокалибровку прибора. Статус "+0" означает успех.
// После чтения статуса очередь ошибок вычитывается полностью.
func (a *Adapter) Calibrate() (*models.CalibrationResult, error) {
	status, err := a.session.Query("*CAL?")
	if err != nil {
		return nil, Convert(err, KindConnection)
	}
	status = strings.TrimSpace(status)
	success := status == "+0"

	records, err := a.DrainErrors()
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{"status": status, "success": success}).
		Info("calibration finished")
	return &models.CalibrationResult{
		Success:       success,
		Status:        status,
		DrainedErrors: records,
	}, nil
}

// parseIdentity разбирает ответ *IDN?
// (производитель,модель,серийный номер,ревизия прошивки).
func parseIdentity(idn string, info SessionInfo) models.Identity {
	parts := strings.Split(idn, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	id := models.Identity{
		ResourceDescriptor: info.ResourceDescriptor,
		OptionsString:      info.OptionsString,
	}
	if len(parts) > 0 {
		id.Vendor = parts[0]
	}
	if len(parts) > 1 {
		id.InstrumentModel = parts[1]
		id.Description = strings.TrimSpace(id.Vendor + " " + id.InstrumentModel)
	}
	if len(parts) > 2 {
		id.Identifier = parts[2]
	}
	if len(parts) > 3 {
		id.Revision = parts[3]
	}
	return id
}

// parseErrorRecord разбирает ответ :SYST:ERR? вида `-113,"Undefined header"`.
func parseErrorRecord(raw string) (models.ErrorRecord, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "\"", "")
	parts := strings.SplitN(cleaned, ",", 2)
	code, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return models.ErrorRecord{}, Errorf(KindProtocol, "unparseable error queue reply %q", raw)
	}
	rec := models.ErrorRecord{Code: code}
	if len(parts) > 1 {
		rec.Message = strings.TrimSpace(parts[1])
	}
	return rec, nil
}

// firstFault возвращает первый ненулевой код из вычитанных записей.
func firstFault(records []models.ErrorRecord) (int, string) {
	for _, rec := range records {
		if rec.Code != 0 {
			return rec.Code, rec.Message
		}
	}
	return 0, ""
}
