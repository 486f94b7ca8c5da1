package main

import (
	"encoding/json"
	"log"

	"github.com/joho/godotenv"

	smu "github.com/iwtcode/b2900Adapter"
	"github.com/iwtcode/b2900Adapter/models"
)

func main() {
	// 1) Загрузка конфигурации
	if err := godotenv.Load("./.env"); err != nil {
		log.Printf("Warning: Could not load .env file. Using default values or environment variables: %v", err)
	}
	cfg := smu.Load()
	log.Printf("Конфигурация загружена: Resource=%s, Timeout=%dms", cfg.Resource, cfg.TimeoutMs)

	// 2) Подключение к прибору
	client, err := smu.New(cfg)
	if err != nil {
		log.Fatalf("Не удалось подключиться к прибору: %v", err)
	}
	defer client.Close()

	id := client.Identity()
	log.Printf("Прибор: %s %s (ревизия %s)", id.Vendor, id.InstrumentModel, id.Revision)

	// 3) Опрос каналов и модели
	info, err := client.QueryChannelModels()
	if err != nil {
		log.Fatalf("Не удалось опросить каналы: %v", err)
	}
	log.Printf("Каналы: %v, модель: %s", info.ChannelNames, info.ModelNumber)

	// 4) Списковый свип по первому каналу
	currRange := 0.1
	result, err := client.MeasureList(models.SweepRequest{
		SelectedChannels:  []int{1},
		SourceValues:      []float64{0.0, 0.01, 0.02, 0.03},
		NPLC:              1,
		CurrentRange:      &currRange,
		ComplianceVoltage: 2,
		RemoteSensing:     true,
	})
	if err != nil {
		log.Fatalf("Свип завершился ошибкой: %v", err)
	}

	rows, err := json.MarshalIndent(result.Rows, "", "  ")
	if err != nil {
		log.Fatalf("Ошибка маршалинга результата: %v", err)
	}
	log.Printf("Результат свипа:\n%s", rows)
}
