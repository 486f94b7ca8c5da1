package smu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iwtcode/b2900Adapter/driver"
	"github.com/iwtcode/b2900Adapter/models"
)

// scriptedSession — минимальная заглушка driver.Session для тестов фасада.
type scriptedSession struct {
	idn     string
	replies map[string][]string
	writes  []string
	closed  int
}

func newScriptedSession() *scriptedSession {
	return &scriptedSession{
		idn:     "Keysight Technologies,B2902A,MY51140000,3.4.2011.5100",
		replies: make(map[string][]string),
	}
}

func (s *scriptedSession) push(cmd, reply string) {
	s.replies[cmd] = append(s.replies[cmd], reply)
}

func (s *scriptedSession) Write(cmd string) error {
	s.writes = append(s.writes, cmd)
	return nil
}

func (s *scriptedSession) Query(cmd string) (string, error) {
	if q := s.replies[cmd]; len(q) > 0 {
		s.replies[cmd] = q[1:]
		return q[0], nil
	}
	switch cmd {
	case "*IDN?":
		return s.idn, nil
	case ":SYST:ERR?":
		return `+0,"No error"`, nil
	}
	return "", fmt.Errorf("unexpected query %q", cmd)
}

func (s *scriptedSession) Close() error {
	s.closed++
	return nil
}

func testConfig() *Config {
	return &Config{
		Resource: "STUB0::INSTR",
		Options:  "Simulate=True",
		LogLevel: "off",
	}
}

func setupClient(t *testing.T, s *scriptedSession) *Client {
	t.Helper()
	c, err := NewWithSession(testConfig(), s)
	require.NoError(t, err, "Не удалось создать клиента")
	require.NotNil(t, c, "Клиент не должен быть nil")
	return c
}

func TestClientIdentity(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)
	defer c.Close()

	id := c.Identity()
	require.Equal(t, "B2902A", id.InstrumentModel)
	require.Equal(t, "STUB0::INSTR", id.ResourceDescriptor)
	require.Equal(t, "Simulate=True", id.OptionsString)
}

func TestClientQueryChannelModels(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)
	defer c.Close()

	info, err := c.QueryChannelModels()
	require.NoError(t, err, "Не удалось опросить каналы")
	require.Equal(t, []string{"Channel1", "Channel2"}, info.ChannelNames)
	require.Equal(t, "B2902A", info.ModelNumber)
	require.NotEmpty(t, info.DrainedErrors)
	require.Equal(t, 0, info.DrainedErrors[len(info.DrainedErrors)-1].Code)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Повторный Close должен быть пустой операцией")
	require.Equal(t, 1, s.closed, "Сессия должна освобождаться ровно один раз")
}

func TestClientRejectsOperationsAfterClose(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)
	require.NoError(t, c.Close())

	_, err := c.MeasureList(models.SweepRequest{
		SelectedChannels: []int{1},
		SourceValues:     []float64{0.1},
	})
	require.Error(t, err)
	require.Equal(t, driver.KindConnection, driver.KindOf(err))

	_, err = c.Calibrate()
	require.Error(t, err)

	_, err = c.QueryChannelModels()
	require.Error(t, err)
}

func TestClientMeasureListThroughFacade(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)
	defer c.Close()

	s.push(":SOUR1:LIST:CURR?", "0,0.1,0.2")
	s.push(":FETC:ARR? (@1)",
		"1.0,0.01,100,0.001,1.1,0.011,110,0.002,1.2,0.012,120,0.003")

	result, err := c.MeasureList(models.SweepRequest{
		SelectedChannels:  []int{1},
		SourceValues:      []float64{0.0, 0.1, 0.2},
		NPLC:              1,
		CurrentRange:      func() *float64 { v := 0.1; return &v }(),
		ComplianceVoltage: 2,
	})
	require.NoError(t, err, "Не удалось выполнить свип через фасад")
	require.Len(t, result.Rows, 3)
	require.Len(t, result.Rows[0], 4)
}

func TestClientMeasureListErrorIsStructured(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)
	defer c.Close()

	_, err := c.MeasureList(models.SweepRequest{})
	require.Error(t, err)
	derr := driver.Convert(err, "")
	require.Equal(t, driver.KindConfiguration, derr.Kind)
	require.NotEmpty(t, derr.Message)
}

func TestClientCalibrate(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)
	defer c.Close()

	s.push("*CAL?", "+0")

	result, err := c.Calibrate()
	require.NoError(t, err, "Не удалось выполнить калибровку")
	require.True(t, result.Success)
}

func TestClientStaysUsableAfterDeviceFault(t *testing.T) {
	s := newScriptedSession()
	c := setupClient(t, s)
	defer c.Close()

	s.push(":SOUR1:LIST:CURR?", "0,0.1")
	s.push(":FETC:ARR? (@1)", "1,2,3,4,5,6,7,8")
	s.push(":SYST:ERR?", `-410,"Query INTERRUPTED"`)
	s.push(":SYST:ERR?", `+0,"No error"`)

	req := models.SweepRequest{
		SelectedChannels:  []int{1},
		SourceValues:      []float64{0.0, 0.1},
		NPLC:              1,
		ComplianceVoltage: 2,
	}
	_, err := c.MeasureList(req)
	require.Error(t, err)
	require.Equal(t, driver.KindDeviceFault, driver.KindOf(err))

	// Отказ прибора не закрывает сессию: следующая операция проходит.
	s.push(":SOUR1:LIST:CURR?", "0,0.1")
	s.push(":FETC:ARR? (@1)", "1,2,3,4,5,6,7,8")

	result, err := c.MeasureList(req)
	require.NoError(t, err, "После DeviceFault клиент должен оставаться пригодным")
	require.Len(t, result.Rows, 2)
}
