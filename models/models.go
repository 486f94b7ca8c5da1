package models

// SourceType задает тип источника канала.
type SourceType string

const (
	SourceCurrent SourceType = "CURRENT"
	SourceVoltage SourceType = "VOLTAGE"
)

// Identity содержит идентификационную информацию прибора,
// считанную один раз при установке соединения.
type Identity struct {
	Identifier         string `json:"identifier"`
	Revision           string `json:"revision"`
	Vendor             string `json:"vendor"`
	Description        string `json:"description"`
	InstrumentModel    string `json:"instrument_model"`
	ResourceDescriptor string `json:"resource_descriptor"`
	OptionsString      string `json:"options_string"`
}

// ChannelSpec описывает логическую конфигурацию одного канала.
// Для источника и для измерительного тракта независимо действует правило:
// либо автодиапазон, либо фиксированный диапазон, но не оба сразу.
type ChannelSpec struct {
	Index           int        `json:"index"`
	SourceType      SourceType `json:"source_type"`
	SourceAutoRange bool       `json:"source_auto_range"`
	SourceRange     *float64   `json:"source_range,omitempty"`
	MeasAutoRange   bool       `json:"meas_auto_range"`
	MeasRange       *float64   `json:"meas_range,omitempty"`
	Compliance      float64    `json:"compliance"`
	NPLC            float64    `json:"nplc"`
	RemoteSensing   bool       `json:"remote_sensing"`
	TriggerCount    int        `json:"trigger_count"`
	WaitTime        *float64   `json:"wait_time,omitempty"`
	TriggerDelay    float64    `json:"trigger_delay"`
}

// SweepRequest описывает один запуск спискового свипа.
// Все выбранные каналы исполняют одну и ту же программу значений.
type SweepRequest struct {
	SelectedChannels  []int      `json:"selected_channels"`
	SourceValues      []float64  `json:"source_values"`
	SourceType        SourceType `json:"source_type,omitempty"`
	NPLC              float64    `json:"nplc"`
	CurrentRange      *float64   `json:"current_range,omitempty"`
	VoltageRange      *float64   `json:"voltage_range,omitempty"`
	ComplianceVoltage float64    `json:"compliance_voltage"`
	WaitTime          *float64   `json:"wait_time,omitempty"`
	RemoteSensing     bool       `json:"remote_sensing"`
}

// ErrorRecord содержит одну запись очереди ошибок прибора.
// Код 0 означает пустую очередь.
type ErrorRecord struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SweepResult содержит переформатированный результат свипа:
// по строке на каждое значение программы, по столбцу на каждый
// скаляр кадра выборки.
type SweepResult struct {
	Rows          [][]float64   `json:"rows"`
	DrainedErrors []ErrorRecord `json:"drained_errors"`
}

// ChannelModels содержит результат опроса каналов и модели прибора.
type ChannelModels struct {
	ChannelNames  []string      `json:"channel_names"`
	ModelNumber   string        `json:"model_number"`
	DrainedErrors []ErrorRecord `json:"drained_errors"`
}

// CalibrationResult содержит результат самокалибровки прибора.
type CalibrationResult struct {
	Success       bool          `json:"success"`
	Status        string        `json:"status"`
	DrainedErrors []ErrorRecord `json:"drained_errors"`
}
