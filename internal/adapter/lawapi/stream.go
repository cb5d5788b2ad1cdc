package lawapi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"caserss/internal/domain"

	"golang.org/x/net/html/charset"
)

const descriptionTag = "판시사항"

// scan читает поток XML и передает события в visit.
// visit возвращает false, чтобы остановить чтение.
// Синтаксическая ошибка XML - ошибка декодирования без частичного восстановления.
func scan(r io.Reader, visit func(Event) bool) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return walk(dec, nil, visit)
}

// walk переводит токены декодера в события. Если cdata задана, она по
// смещению конца текстового токена сообщает, была ли это секция CDATA.
func walk(dec *xml.Decoder, cdata func(end int64) bool, visit func(Event) bool) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: xml at offset %d: %w", domain.ErrDecode, dec.InputOffset(), err)
		}
		var ev Event
		switch t := tok.(type) {
		case xml.StartElement:
			ev = Start(t.Name.Local)
		case xml.EndElement:
			ev = End(t.Name.Local)
		case xml.CharData:
			ev = Text(string(t))
			if cdata != nil {
				ev.CDATA = cdata(dec.InputOffset())
			}
		default:
			continue
		}
		if !visit(ev) {
			return nil
		}
	}
}

// ParseList разбирает XML-список прецедентов.
func ParseList(r io.Reader) ([]domain.Precedent, error) {
	var s listState
	err := scan(r, func(ev Event) bool {
		s = step(s, ev)
		return s.err == nil
	})
	if err != nil {
		return nil, err
	}
	return finish(s)
}

// ParseDescription возвращает текст поля 판시사항 из документа прецедента.
// Берется последний непустой фрагмент перед первым закрывающим тегом поля:
// секция CDATA возвращается без изменений, обычный текст обрезается по краям.
// Конец потока без этого тега - ошибка.
func ParseDescription(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read document: %w", domain.ErrDecode, err)
	}
	src, err := toUTF8(raw)
	if err != nil {
		return "", err
	}

	var (
		pending string
		found   bool
	)
	dec := xml.NewDecoder(bytes.NewReader(src))
	// документ уже в UTF-8, объявленную кодировку не применяем повторно
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }
	cdata := func(end int64) bool {
		return end <= int64(len(src)) && bytes.HasSuffix(src[:end], cdataEnd)
	}
	err = walk(dec, cdata, func(ev Event) bool {
		switch ev.Kind {
		case EventStart:
			if ev.Name == descriptionTag {
				pending = ""
			}
		case EventText:
			text := ev.Text
			if !ev.CDATA {
				text = strings.TrimSpace(text)
			}
			if strings.TrimSpace(text) != "" {
				pending = text
			}
		case EventEnd:
			if ev.Name == descriptionTag {
				found = true
				return false
			}
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %s not found", domain.ErrDecode, descriptionTag)
	}
	return pending, nil
}

var cdataEnd = []byte("]]>")

// toUTF8 перекодирует документ в UTF-8 по кодировке из XML-объявления.
func toUTF8(src []byte) ([]byte, error) {
	label := declaredEncoding(src)
	if label == "" || strings.EqualFold(label, "utf-8") {
		return src, nil
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("%w: unsupported encoding %q", domain.ErrDecode, label)
	}
	out, err := enc.NewDecoder().Bytes(src)
	if err != nil {
		return nil, fmt.Errorf("%w: convert from %s: %w", domain.ErrDecode, label, err)
	}
	return out, nil
}

func declaredEncoding(src []byte) string {
	if !bytes.HasPrefix(src, []byte("<?xml")) {
		return ""
	}
	end := bytes.Index(src, []byte("?>"))
	if end < 0 {
		return ""
	}
	decl := src[:end]
	i := bytes.Index(decl, []byte("encoding="))
	if i < 0 {
		return ""
	}
	rest := decl[i+len("encoding="):]
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return ""
	}
	j := bytes.IndexByte(rest[1:], rest[0])
	if j < 0 {
		return ""
	}
	return string(rest[1 : 1+j])
}
