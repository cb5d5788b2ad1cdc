package rss

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ContentType - тип содержимого отрисованной ленты.
const ContentType = "application/rss+xml; charset=utf-8"

// Item определяет набор данных, необходимый для элемента ленты.
// Каждый источник предоставляет собственное отображение прецедента на эти поля.
type Item interface {
	Title() string
	Link() string
	Description() string
	GUID() string
	Author() string
	Category() string
}

// Dated - необязательная возможность элемента: время публикации.
// Используется только для lastBuildDate канала.
type Dated interface {
	PubDate() time.Time
}

// ChannelConfig содержит метаданные канала RSS.
// Пустые Language и Generator не выводятся.
type ChannelConfig struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
	Generator   string `json:"generator,omitempty"`
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel channelXML `xml:"channel"`
}

type channelXML struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	Generator     string    `xml:"generator,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []itemXML `xml:"item"`
}

type itemXML struct {
	Title       cdataXML `xml:"title"`
	Link        string   `xml:"link"`
	Description cdataXML `xml:"description"`
	GUID        guidXML  `xml:"guid"`
	Author      string   `xml:"author"`
	Category    string   `xml:"category"`
}

type cdataXML struct {
	Text string `xml:",cdata"`
}

type guidXML struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Render формирует документ RSS 2.0 из конфигурации канала и элементов.
// Порядок элементов сохраняется, сортировка не выполняется.
// Заголовок и описание элемента оборачиваются в CDATA.
func Render[T Item](cfg ChannelConfig, items []T) (string, error) {
	doc := rssXML{
		Version: "2.0",
		Channel: channelXML{
			Title:       cfg.Title,
			Link:        cfg.Link,
			Description: cfg.Description,
			Language:    cfg.Language,
			Generator:   cfg.Generator,
			Items:       make([]itemXML, 0, len(items)),
		},
	}
	var latest time.Time
	for _, it := range items {
		doc.Channel.Items = append(doc.Channel.Items, itemXML{
			Title:       cdataXML{Text: sanitizeXMLText(it.Title())},
			Link:        it.Link(),
			Description: cdataXML{Text: sanitizeXMLText(it.Description())},
			GUID:        guidXML{IsPermaLink: "false", Value: it.GUID()},
			Author:      it.Author(),
			Category:    it.Category(),
		})
		if d, ok := any(it).(Dated); ok {
			if pd := d.PubDate(); !pd.IsZero() && pd.After(latest) {
				latest = pd
			}
		}
	}
	if !latest.IsZero() {
		doc.Channel.LastBuildDate = latest.Format(time.RFC1123Z)
	}

	var b strings.Builder
	b.WriteString(xml.Header)
	enc := xml.NewEncoder(&b)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode RSS: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode RSS: %w", err)
	}
	return b.String(), nil
}

// sanitizeXMLText заменяет на U+FFFD руны вне диапазона Char из XML 1.0.
// Экранирование encoding/xml делает то же самое, а секция CDATA пропускает их как есть.
func sanitizeXMLText(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return !isXMLChar(r) }) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isXMLChar(r) {
			r = utf8.RuneError
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= utf8.MaxRune:
		return true
	}
	return false
}
