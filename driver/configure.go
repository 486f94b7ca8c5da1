package driver

import (
	"fmt"

	"github.com/iwtcode/b2900Adapter/models"
)

// scpiFunc переводит логический тип источника в имя функции SCPI.
func scpiFunc(t models.SourceType) (source string, measure string, err error) {
	switch t {
	case models.SourceCurrent:
		return "CURR", "VOLT", nil
	case models.SourceVoltage:
		return "VOLT", "CURR", nil
	default:
		return "", "", Errorf(KindConfiguration, "unknown source type %q", string(t))
	}
}

// validateRangePair проверяет правило "ровно один из": либо автодиапазон,
// либо фиксированный диапазон. Фиксированный диапазон задается модулем
// величины и обязан быть строго положительным.
func validateRangePair(what string, auto bool, fixed *float64) error {
	if auto && fixed != nil {
		return Errorf(KindConfiguration, "%s: auto range and fixed range are mutually exclusive", what)
	}
	if !auto && fixed == nil {
		return Errorf(KindConfiguration, "%s: either auto range or a fixed range must be set", what)
	}
	if fixed != nil && *fixed <= 0 {
		return Errorf(KindConfiguration, "%s: fixed range must be strictly positive, got %g", what, *fixed)
	}
	return nil
}

// ConfigureChannel переводит логическую спецификацию канала в команды
// конфигурации прибора. Локального состояния не остается: все изменения
// живут в самом приборе.
//
// Программирование измерительного диапазона, предела, NPLC и счетчиков
// выборки выполняется только на моделях расширенного семейства;
// базовые модели эти поля не поддерживают.
func (a *Adapter) ConfigureChannel(spec models.ChannelSpec) error {
	if spec.Index < 1 || spec.Index > a.caps.Channels {
		return Errorf(KindConfiguration, "channel index %d out of range 1..%d", spec.Index, a.caps.Channels)
	}
	src, meas, err := scpiFunc(spec.SourceType)
	if err != nil {
		return err
	}
	if err := validateRangePair("source range", spec.SourceAutoRange, spec.SourceRange); err != nil {
		return err
	}
	if err := validateRangePair("measurement range", spec.MeasAutoRange, spec.MeasRange); err != nil {
		return err
	}
	if spec.TriggerCount < 1 {
		return Errorf(KindConfiguration, "trigger count must be >= 1, got %d", spec.TriggerCount)
	}

	n := spec.Index

	if err := a.write(fmt.Sprintf(":SOUR%d:FUNC:MODE %s", n, src)); err != nil {
		return err
	}
	if spec.SourceAutoRange {
		if err := a.write(fmt.Sprintf(":SOUR%d:%s:RANG:AUTO ON", n, src)); err != nil {
			return err
		}
	} else {
		if err := a.write(fmt.Sprintf(":SOUR%d:%s:RANG:AUTO OFF", n, src)); err != nil {
			return err
		}
		if err := a.write(fmt.Sprintf(":SOUR%d:%s:RANG %g", n, src, *spec.SourceRange)); err != nil {
			return err
		}
	}

	// Списковый (транзиентный) режим источника.
	if err := a.write(fmt.Sprintf(":SOUR%d:%s:MODE LIST", n, src)); err != nil {
		return err
	}

	if err := a.write(fmt.Sprintf(":SENS%d:REM %s", n, onOff(spec.RemoteSensing))); err != nil {
		return err
	}

	if !a.caps.ExtendedMeasurement {
		return nil
	}

	if spec.MeasAutoRange {
		if err := a.write(fmt.Sprintf(":SENS%d:%s:RANG:AUTO ON", n, meas)); err != nil {
			return err
		}
	} else {
		if err := a.write(fmt.Sprintf(":SENS%d:%s:RANG:AUTO OFF", n, meas)); err != nil {
			return err
		}
		if err := a.write(fmt.Sprintf(":SENS%d:%s:RANG %g", n, meas, *spec.MeasRange)); err != nil {
			return err
		}
	}
	// Предел на комплементарную величину: ограничение напряжения при
	// источнике тока и наоборот.
	if err := a.write(fmt.Sprintf(":SENS%d:%s:PROT %g", n, meas, spec.Compliance)); err != nil {
		return err
	}
	// Недопустимое значение NPLC отклоняет сам прибор; оно всплывет
	// из очереди ошибок, а не будет молча обрезано.
	if err := a.write(fmt.Sprintf(":SENS%d:%s:NPLC %g", n, meas, spec.NPLC)); err != nil {
		return err
	}

	if err := a.write(fmt.Sprintf(":TRIG%d:TRAN:COUN %d", n, spec.TriggerCount)); err != nil {
		return err
	}
	if err := a.write(fmt.Sprintf(":TRIG%d:ACQ:COUN %d", n, spec.TriggerCount)); err != nil {
		return err
	}
	if spec.WaitTime != nil {
		if err := a.write(fmt.Sprintf(":SENS%d:WAIT ON", n)); err != nil {
			return err
		}
		if err := a.write(fmt.Sprintf(":SENS%d:WAIT:OFFS %g", n, *spec.WaitTime)); err != nil {
			return err
		}
	} else {
		if err := a.write(fmt.Sprintf(":SENS%d:WAIT OFF", n)); err != nil {
			return err
		}
	}
	if err := a.write(fmt.Sprintf(":TRIG%d:ACQ:DEL %g", n, spec.TriggerDelay)); err != nil {
		return err
	}
	if err := a.write(fmt.Sprintf(":TRIG%d:ACQ:TOUT ON", n)); err != nil {
		return err
	}
	return nil
}

// write отправляет команду через сессию, приводя ошибку к виду адаптера.
func (a *Adapter) write(cmd string) error {
	if err := a.session.Write(cmd); err != nil {
		return Convert(err, KindConnection)
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
