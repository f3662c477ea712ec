package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"furniture-detector-go/internal/client"
	"furniture-detector-go/internal/config"
	"furniture-detector-go/internal/ingress"
	"furniture-detector-go/internal/render"
	"furniture-detector-go/internal/service"
	"furniture-detector-go/pkg/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	outDir := flag.String("out", ".", "каталог для detection_results.json и изображения")
	check := flag.Bool("check", false, "только проверить конфигурацию и доступность сервиса детекции")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Использование: detect [-out DIR] [-check] IMAGE\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Не удалось прочитать .env: %v", err)
	}

	if *check {
		os.Exit(preflight(logger, *outDir))
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(logger, flag.Arg(0), *outDir); err != nil {
		logger.Errorf("Ошибка: %v", err)
		os.Exit(1)
	}
}

func run(logger *logrus.Logger, imagePath, outDir string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}

	detectionService := service.NewDetectionService(
		ingress.NewValidator(cfg.Upload.MaxBytes, cfg.Upload.AllowedExtensions),
		client.NewDetector(cfg.Detection, logger),
		render.NewVisualizer(cfg.Render, logger),
		cfg.Render.FallbackToOriginal,
		cfg.Detection.Mode,
		logger,
	)

	fmt.Printf("Processing local image: %s\n", imagePath)
	resp, err := detectionService.Analyze(context.Background(), models.AnalyzeRequest{
		ImageData: imageData,
		Filename:  imagePath,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", models.PublicMessage(err), err)
	}

	report := NewReport(imagePath, resp)
	if err := WriteText(os.Stdout, report); err != nil {
		return err
	}

	jsonPath, outImage, err := SaveOutputs(outDir, report, resp.OutputData)
	if err != nil {
		return err
	}

	fmt.Printf("\nResults saved to %s\n", jsonPath)
	fmt.Printf("Visualization saved to %s\n", outImage)
	return nil
}

// preflight проверяет конфигурацию, каталог вывода и доступность сервиса
func preflight(logger *logrus.Logger, outDir string) int {
	failed := 0
	report := func(ok bool, format string, args ...any) {
		status := "OK"
		if !ok {
			status = "FAIL"
			failed++
		}
		fmt.Printf("  [%s] %s\n", status, fmt.Sprintf(format, args...))
	}

	fmt.Println("Проверка окружения")

	cfg, err := config.LoadConfig()
	if err != nil {
		report(false, "конфигурация: %v", err)
		return 1
	}
	report(true, "конфигурация: режим %s, визуализация %s", cfg.Detection.Mode, cfg.Render.Mode)

	if err := checkWritable(outDir); err != nil {
		report(false, "каталог вывода %s: %v", outDir, err)
	} else {
		report(true, "каталог вывода %s доступен для записи", outDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Detection.Timeout)
	defer cancel()
	if err := client.NewDetector(cfg.Detection, logger).CheckHealth(ctx); err != nil {
		report(false, "сервис детекции %s: %v", cfg.Detection.APIURL, err)
	} else {
		report(true, "сервис детекции отвечает")
	}

	if failed > 0 {
		fmt.Printf("Проверок не пройдено: %d\n", failed)
		return 1
	}
	fmt.Println("Все проверки пройдены")
	return 0
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".detect-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
