// Package docs holds the stakectl documentation topics, one markdown file per topic.
package docs

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed *.md
var docs embed.FS

// readme is the index topic, it lists the others.
const readme = "readme"

// GetTopic returns the markdown of a topic. "*" is every topic.
func GetTopic(topic string) (string, error) {
	if topic == "*" {
		topics, err := Topics()
		if err != nil {
			return "", err
		}
		return GetTopics(topics...)
	}
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// GetTopics returns the markdown of several topics, one after the other.
func GetTopics(topics ...string) (string, error) {
	var b bytes.Buffer
	for _, topic := range topics {
		content, err := GetTopic(topic)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Topics lists the topics, sorted, without the readme.
func Topics() ([]string, error) {
	entries, err := fs.ReadDir(docs, ".")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		base := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if e.IsDir() || base == readme {
			continue
		}
		topics = append(topics, base)
	}
	sort.Strings(topics)
	return topics, nil
}
