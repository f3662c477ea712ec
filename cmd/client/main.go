package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "адрес сервера")
	timeout := flag.Duration("timeout", 2*time.Minute, "таймаут запроса")
	flag.Parse()

	httpClient := &http.Client{Timeout: *timeout}

	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	resp, err := httpClient.Get(*serverURL + "/health")
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Ошибка чтения ответа: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", resp.StatusCode, string(body))

	if flag.NArg() == 0 {
		fmt.Println("Для отправки изображения запустите: client [-server URL] <путь_к_изображению>")
		return
	}

	imagePath := flag.Arg(0)
	fmt.Printf("Отправляем изображение %s на детекцию...\n", imagePath)
	if err := upload(httpClient, *serverURL, imagePath); err != nil {
		fmt.Printf("Ошибка при отправке изображения: %v\n", err)
		os.Exit(1)
	}
}

func upload(httpClient *http.Client, serverURL, imagePath string) error {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}

	// Создаем multipart form
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("ошибка создания form field: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return fmt.Errorf("ошибка записи изображения: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+"/upload", &body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Printf("Ответ детекции (статус %d):\n%s\n", resp.StatusCode, string(respBody))
	return nil
}
