package topics

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"inkwell/internal/content"
	"inkwell/internal/services"
)

//go:embed topics.yaml
var embeddedBank []byte

type bankFile struct {
	Topics []content.Topic `yaml:"topics"`
}

// LoadBank reads the topic bank from path, or the embedded bank when path is
// empty. Categories are normalized to title case so bank files with uneven
// casing still group correctly.
func LoadBank(path string) ([]content.Topic, error) {
	data := embeddedBank
	if strings.TrimSpace(path) != "" {
		loaded, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read topic bank: %w", err)
		}
		data = loaded
	}

	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse topic bank: %w", err)
	}

	titler := cases.Title(language.English)
	topics := make([]content.Topic, 0, len(file.Topics))
	seen := make(map[string]struct{}, len(file.Topics))
	for _, topic := range file.Topics {
		title := strings.TrimSpace(topic.Title)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		category := strings.TrimSpace(topic.Category)
		if category == "" {
			category = "General"
		} else if category == strings.ToLower(category) {
			category = titler.String(category)
		}

		keywords := make([]string, 0, len(topic.Keywords))
		for _, keyword := range topic.Keywords {
			if keyword = strings.TrimSpace(keyword); keyword != "" {
				keywords = append(keywords, strings.ToLower(keyword))
			}
		}

		topics = append(topics, content.Topic{
			Title:    title,
			Keywords: keywords,
			Category: category,
		})
	}

	if len(topics) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "topics", "topic bank is empty", nil)
	}
	return topics, nil
}
