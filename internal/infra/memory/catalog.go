package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"learning-quiz-service/internal/domain"
)

// StaticQuizLoader is a loader backed by an in-memory map (sample catalog, tests).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

type catalogFile struct {
	Quizzes []map[string]interface{} `yaml:"quizzes"`
}

// LoadCatalogFile reads a YAML catalog of the form `quizzes: [...]`, using the
// same field names as the JSON form of domain.Quiz.
func LoadCatalogFile(path string) (*StaticQuizLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML catalog content.
func ParseCatalog(data []byte) (*StaticQuizLoader, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	quizzes := make(map[string]domain.Quiz, len(file.Quizzes))
	for i, raw := range file.Quizzes {
		normalizeCorrectAnswers(raw)
		// YAML maps decode to string-keyed maps, so a JSON round trip reuses
		// domain.Answer's string-or-list decoding.
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(encoded, &quiz); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if quiz.ID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		if err := quiz.Validate(); err != nil {
			return nil, err
		}
		quizzes[quiz.ID] = quiz
	}
	return NewStaticQuizLoader(quizzes), nil
}

// normalizeCorrectAnswers turns YAML scalars under correctAnswer back into
// strings, so an unquoted `true` or `42` keeps the text the author wrote
// instead of decoding to no answer.
func normalizeCorrectAnswers(quiz map[string]interface{}) {
	questions, _ := quiz["questions"].([]interface{})
	for _, item := range questions {
		question, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		switch v := question["correctAnswer"].(type) {
		case nil, string:
		case []interface{}:
			for i, elem := range v {
				v[i] = scalarString(elem)
			}
		default:
			question["correctAnswer"] = scalarString(v)
		}
	}
}

func scalarString(v interface{}) interface{} {
	switch v.(type) {
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v)
	}
	return v
}
