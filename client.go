package smu

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iwtcode/b2900Adapter/driver"
	"github.com/iwtcode/b2900Adapter/models"
)

// state описывает жизненный цикл клиента.
type state int

const (
	stateConnected state = iota
	stateClosed
	stateFaulted
)

// Client является основной точкой входа для взаимодействия с библиотекой.
// Один клиент владеет одним соединением с прибором на все время жизни;
// одновременный доступ из нескольких горутин сериализуется мьютексом.
type Client struct {
	adapter *driver.Adapter
	session driver.Session
	config  *Config
	logger  *logrus.Logger

	mu    sync.Mutex
	state state
}

// New создает и возвращает новый экземпляр клиента.
// Эта функция открывает VISA-сессию и считывает идентификацию прибора.
func New(cfg *Config) (*Client, error) {
	sess, err := driver.OpenVisaSession(cfg.Resource, driver.VisaOptions{
		IDQuery:   cfg.IDQuery,
		Reset:     cfg.Reset,
		TimeoutMs: cfg.TimeoutMs,
	})
	if err != nil {
		return nil, driver.Convert(err, driver.KindConnection)
	}
	return NewWithSession(cfg, sess)
}

// NewWithSession создает клиента поверх уже открытой сессии.
// Встраивающее приложение может подставить сюда собственную реализацию
// Session; тесты используют этот путь со скриптованной заглушкой.
func NewWithSession(cfg *Config, sess driver.Session) (*Client, error) {
	logger := logrus.New()

	if cfg.LogLevel == "off" || cfg.LogLevel == "none" {
		logger.SetOutput(io.Discard)
	} else {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
		logger.SetOutput(os.Stdout)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	adapter, err := driver.NewAdapter(sess, logger, driver.SessionInfo{
		ResourceDescriptor: cfg.Resource,
		OptionsString:      cfg.Options,
	})
	if err != nil {
		sess.Close()
		return nil, driver.Convert(err, driver.KindConnection)
	}

	return &Client{
		adapter: adapter,
		session: sess,
		config:  cfg,
		logger:  logger,
		state:   stateConnected,
	}, nil
}

// GetLogger возвращает используемый логгер.
func (c *Client) GetLogger() *logrus.Logger {
	return c.logger
}

// Identity возвращает идентификацию прибора, считанную при подключении.
func (c *Client) Identity() models.Identity {
	return c.adapter.Identity()
}

// ChannelNames возвращает имена доступных каналов прибора.
func (c *Client) ChannelNames() []string {
	return c.adapter.ChannelNames()
}

// QueryChannelModels возвращает имена доступных каналов и номер модели,
// попутно вычитывая очередь ошибок прибора.
func (c *Client) QueryChannelModels() (*models.ChannelModels, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return nil, err
	}

	records, err := c.adapter.DrainErrors()
	if err != nil {
		return nil, c.fail(err)
	}
	return &models.ChannelModels{
		ChannelNames:  c.adapter.ChannelNames(),
		ModelNumber:   c.adapter.Identity().InstrumentModel,
		DrainedErrors: records,
	}, nil
}

// MeasureList выполняет один списковый свип по запросу.
// Повторных попыток клиент не делает: политика ретраев остается
// на вызывающей стороне.
func (c *Client) MeasureList(req models.SweepRequest) (*models.SweepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return nil, err
	}

	result, err := c.adapter.MeasureList(req)
	if err != nil {
		return nil, c.fail(err)
	}
	return result, nil
}

// Calibrate запускает самокалибровку прибора.
func (c *Client) Calibrate() (*models.CalibrationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return nil, err
	}

	result, err := c.adapter.Calibrate()
	if err != nil {
		return nil, c.fail(err)
	}
	return result, nil
}

// Close закрывает соединение с прибором. Повторный вызов — безвредная
// пустая операция, сессия освобождается ровно один раз.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed
	if err := c.session.Close(); err != nil {
		return driver.Convert(err, driver.KindConnection)
	}
	c.logger.Info("instrument session closed")
	return nil
}

// usable проверяет, что клиент еще может выполнять операции.
func (c *Client) usable() error {
	switch c.state {
	case stateClosed:
		return driver.Errorf(driver.KindConnection, "client is closed")
	case stateFaulted:
		return driver.Errorf(driver.KindConnection, "client is faulted, re-initialize the session")
	}
	return nil
}

// fail приводит ошибку к структурированному виду и переводит клиента
// в состояние Faulted при потере соединения. Отказ самого прибора
// (DeviceFault) сессию не закрывает: прибор остается пригодным для
// следующей операции.
func (c *Client) fail(err error) error {
	derr := driver.Convert(err, driver.KindConnection)
	if derr.Kind == driver.KindConnection {
		c.state = stateFaulted
	}
	c.logger.WithFields(logrus.Fields{
		"kind":    string(derr.Kind),
		"message": derr.Message,
	}).Error("operation failed")
	return derr
}
