// Package secret читает ключи API из окружения процесса и файлов .env.
package secret

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var ErrNotFound = errors.New("secret not found")

// EnvSecrets реализует usecase.SecretReader.
// Значения из файлов .env имеют приоритет ниже переменных окружения.
type EnvSecrets struct {
	files  map[string]string
	lookup func(string) (string, bool)
}

// NewEnvSecrets читает перечисленные файлы .env. Отсутствующие файлы пропускаются,
// файлы с синтаксической ошибкой возвращают ошибку.
func NewEnvSecrets(paths ...string) (*EnvSecrets, error) {
	s := &EnvSecrets{
		files:  make(map[string]string),
		lookup: os.LookupEnv,
	}
	for _, p := range paths {
		vals, err := godotenv.Read(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", p, err)
		}
		for k, v := range vals {
			if _, ok := s.files[k]; !ok {
				s.files[k] = v
			}
		}
	}
	return s, nil
}

func (s *EnvSecrets) ReadSecret(name string) (string, error) {
	if v, ok := s.lookup(name); ok && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if v, ok := s.files[name]; ok && strings.TrimSpace(v) != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
