package driver

import "strings"

// defaultElementsPerPoint — число скаляров в одном кадре выборки
// при выборке массива целиком. Константа протокола семейства B2900,
// а не свойство алгоритма переформатирования.
const defaultElementsPerPoint = 4

// Capabilities описывает возможности конкретной модели прибора.
// Таблица заполняется один раз при подключении; алгоритм свипа
// от строки модели больше не зависит.
type Capabilities struct {
	Family           string
	Channels         int
	ElementsPerPoint int
	// ExtendedMeasurement — модель поддерживает программирование
	// измерительного диапазона, предела и счетчиков выборки.
	ExtendedMeasurement bool
}

var capabilityTable = map[string]Capabilities{
	"B2901A": {Family: "B2900", Channels: 1, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2901B": {Family: "B2900", Channels: 1, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2902A": {Family: "B2900", Channels: 2, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2902B": {Family: "B2900", Channels: 2, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2911A": {Family: "B2900", Channels: 1, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2911B": {Family: "B2900", Channels: 1, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2912A": {Family: "B2900", Channels: 2, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2912B": {Family: "B2900", Channels: 2, ElementsPerPoint: defaultElementsPerPoint, ExtendedMeasurement: true},
	"B2961A": {Family: "B2960", Channels: 1, ElementsPerPoint: defaultElementsPerPoint},
	"B2961B": {Family: "B2960", Channels: 1, ElementsPerPoint: defaultElementsPerPoint},
	"B2962A": {Family: "B2960", Channels: 2, ElementsPerPoint: defaultElementsPerPoint},
	"B2962B": {Family: "B2960", Channels: 2, ElementsPerPoint: defaultElementsPerPoint},
}

// CapabilitiesFor возвращает возможности для строки модели из *IDN?.
// Неизвестная модель получает безопасную базовую запись.
func CapabilitiesFor(model string) Capabilities {
	m := strings.ToUpper(strings.TrimSpace(model))
	if caps, ok := capabilityTable[m]; ok {
		return caps
	}
	return Capabilities{Family: "Unknown", Channels: 1, ElementsPerPoint: defaultElementsPerPoint}
}
