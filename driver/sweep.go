package driver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iwtcode/b2900Adapter/models"
)

// listReadbackTolerance — допуск сравнения при проверке считанной обратно
// программы списка: прибор возвращает значения в своем формате с конечной
// точностью.
const listReadbackTolerance = 1e-9

// SelectorToken собирает селектор каналов вида "(@2,1,3)".
// Порядок следования каналов сохраняется как в запросе, без сортировки.
func SelectorToken(channels []int) string {
	parts := make([]string, len(channels))
	for i, ch := range channels {
		parts[i] = strconv.Itoa(ch)
	}
	return "(@" + strings.Join(parts, ",") + ")"
}

// MeasureList выполняет один полный цикл спискового свипа:
// включает выбранные каналы и явно выключает остальные, конфигурирует
// каждый выбранный канал, программирует и проверяет список значений,
// запускает свип по селектору, вычитывает весь массив выборки,
// вычитывает очередь ошибок и переформатирует результат.
//
// Выходы всех выбранных каналов выключаются на любом пути выхода,
// включая ошибку в середине свипа.
func (a *Adapter) MeasureList(req models.SweepRequest) (*models.SweepResult, error) {
	if len(req.SourceValues) == 0 {
		return nil, Errorf(KindConfiguration, "source value list is empty")
	}
	if len(req.SelectedChannels) == 0 {
		return nil, Errorf(KindConfiguration, "no channels selected")
	}
	selected := make(map[int]bool, len(req.SelectedChannels))
	for _, ch := range req.SelectedChannels {
		if ch < 1 || ch > a.caps.Channels {
			return nil, Errorf(KindConfiguration, "channel index %d out of range 1..%d", ch, a.caps.Channels)
		}
		selected[ch] = true
	}
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = models.SourceCurrent
	}
	src, _, err := scpiFunc(sourceType)
	if err != nil {
		return nil, err
	}

	// Невыбранные каналы выключаются явно, чтобы не оставить на них
	// вывод от предыдущего запуска.
	for ch := 1; ch <= a.caps.Channels; ch++ {
		if err := a.write(fmt.Sprintf(":OUTP%d %s", ch, onOff(selected[ch]))); err != nil {
			a.disableOutputs(req.SelectedChannels)
			return nil, err
		}
	}
	defer a.disableOutputs(req.SelectedChannels)

	for _, ch := range req.SelectedChannels {
		spec := channelSpecFromRequest(req, ch, sourceType)
		if err := a.ConfigureChannel(spec); err != nil {
			return nil, err
		}
		if err := a.programList(ch, src, req.SourceValues); err != nil {
			return nil, err
		}
	}

	token := SelectorToken(req.SelectedChannels)
	a.logger.WithField("selector", token).Debug("initiating list sweep")

	if err := a.write(":INIT " + token); err != nil {
		return nil, err
	}
	// Блокирующая выборка всех накопленных данных, не частичная.
	raw, err := a.session.Query(":FETC:ARR? " + token)
	if err != nil {
		return nil, Convert(err, KindConnection)
	}
	flat, err := parseFloats(raw)
	if err != nil {
		return nil, err
	}

	records, err := a.DrainErrors()
	if err != nil {
		return nil, err
	}
	if code, msg := firstFault(records); code != 0 {
		return nil, Errorf(KindDeviceFault, "device reported error %d, %q after sweep", code, msg)
	}

	rows, err := Reshape(flat, len(req.SourceValues))
	if err != nil {
		return nil, err
	}
	if w := len(rows[0]); a.caps.ElementsPerPoint > 0 && w != a.caps.ElementsPerPoint*len(req.SelectedChannels) {
		return nil, Errorf(KindShape,
			"fetched row width %d does not match %d channels at %d elements per point",
			w, len(req.SelectedChannels), a.caps.ElementsPerPoint)
	}

	a.logger.WithFields(logrus.Fields{
		"rows":  len(rows),
		"width": len(rows[0]),
	}).Info("list sweep finished")
	return &models.SweepResult{Rows: rows, DrainedErrors: records}, nil
}

// channelSpecFromRequest выводит спецификацию канала из общего запроса.
// Программа значений одна на все каналы, поэтому и спецификации
// различаются только индексом.
func channelSpecFromRequest(req models.SweepRequest, ch int, sourceType models.SourceType) models.ChannelSpec {
	spec := models.ChannelSpec{
		Index:         ch,
		SourceType:    sourceType,
		Compliance:    req.ComplianceVoltage,
		NPLC:          req.NPLC,
		RemoteSensing: req.RemoteSensing,
		TriggerCount:  len(req.SourceValues),
		WaitTime:      req.WaitTime,
	}
	if req.CurrentRange != nil {
		spec.SourceRange = req.CurrentRange
	} else {
		spec.SourceAutoRange = true
	}
	if req.VoltageRange != nil {
		spec.MeasRange = req.VoltageRange
	} else {
		spec.MeasAutoRange = true
	}
	return spec
}

// programList записывает программу списка в буфер прибора и сразу
// считывает ее обратно. Несовпадение считанного списка с заданным —
// ошибка протокола: прибор не принял программу.
func (a *Adapter) programList(ch int, src string, values []float64) error {
	joined := joinFloats(values)
	if err := a.write(fmt.Sprintf(":SOUR%d:LIST:%s %s", ch, src, joined)); err != nil {
		return err
	}
	raw, err := a.session.Query(fmt.Sprintf(":SOUR%d:LIST:%s?", ch, src))
	if err != nil {
		return Convert(err, KindConnection)
	}
	echoed, err := parseFloats(raw)
	if err != nil {
		return err
	}
	if !floatsEqual(echoed, values) {
		return Errorf(KindProtocol,
			"channel %d list readback mismatch: programmed %d values, device echoed %q", ch, len(values), raw)
	}
	return nil
}

// disableOutputs выключает выходы перечисленных каналов в режиме
// "лучшее из возможного": ошибка здесь логируется, но не маскирует
// исходную причину выхода.
func (a *Adapter) disableOutputs(channels []int) {
	for _, ch := range channels {
		if err := a.session.Write(fmt.Sprintf(":OUTP%d OFF", ch)); err != nil {
			a.logger.WithField("channel", ch).WithError(err).
				Warn("failed to disable channel output")
		}
	}
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// parseFloats разбирает плоский числовой ответ прибора в формате CSV.
func parseFloats(raw string) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, Errorf(KindProtocol, "unparseable numeric payload %q", p)
		}
		values = append(values, v)
	}
	return values, nil
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		scale := math.Max(1, math.Abs(b[i]))
		if math.Abs(a[i]-b[i]) > listReadbackTolerance*scale {
			return false
		}
	}
	return true
}
