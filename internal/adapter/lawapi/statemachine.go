package lawapi

import (
	"fmt"
	"strconv"
	"strings"

	"caserss/internal/domain"
)

// EventKind - тип события потока разметки.
type EventKind int

const (
	EventStart EventKind = iota
	EventEnd
	EventText
)

// Event - событие потока, не зависящее от конкретного XML-парсера.
// Name заполняется для Start/End, Text - для текстовых событий.
type Event struct {
	Kind EventKind
	Name string
	Text string
	// CDATA - текст пришел секцией CDATA. Заполняется не всеми источниками событий.
	CDATA bool
}

func Start(name string) Event { return Event{Kind: EventStart, Name: name} }
func End(name string) Event   { return Event{Kind: EventEnd, Name: name} }
func Text(text string) Event  { return Event{Kind: EventText, Text: text} }

const recordTag = "prec"

// Метки полей записи в списке.
const (
	tagSerialNumber = "판례일련번호"
	tagCaseName     = "사건명"
	tagCaseNumber   = "사건번호"
	tagDecisionDate = "선고일자"
	tagCourtName    = "법원명"
	tagCaseType     = "사건종류명"
	tagDecisionType = "판결유형"
)

// record - накопитель одной записи, пока ее поля еще читаются.
type record struct {
	id           int64
	hasID        bool
	caseName     string
	caseCode     string
	decisionDate domain.Date
	court        domain.Court
	category     domain.CaseCategory
	kind         domain.DecisionKind
}

// listState - состояние разбора списка: завершенные записи,
// текущая запись и буфер последнего текста.
type listState struct {
	done    []record
	current record
	open    bool
	pending string
	err     error
}

// step - чистая функция перехода. После ошибки состояние не меняется.
func step(s listState, ev Event) listState {
	if s.err != nil {
		return s
	}
	switch ev.Kind {
	case EventStart:
		if ev.Name == recordTag {
			if s.open {
				s.done = appendRecord(s.done, s.current)
			}
			s.current = record{}
			s.open = true
			s.pending = ""
		}
	case EventText:
		// Последний фрагмент текста перед закрывающим тегом побеждает.
		if t := strings.TrimSpace(ev.Text); t != "" {
			s.pending = t
		}
	case EventEnd:
		if ev.Name == recordTag {
			s.pending = ""
			if s.open {
				s.done = appendRecord(s.done, s.current)
				s.current = record{}
				s.open = false
			}
			return s
		}
		if !s.open {
			return s
		}
		s.current, s.err = assign(s.current, ev.Name, s.pending)
	}
	return s
}

// appendRecord копирует срез, чтобы предыдущие состояния оставались неизменными.
func appendRecord(done []record, r record) []record {
	out := make([]record, len(done), len(done)+1)
	copy(out, done)
	return append(out, r)
}

func assign(r record, tag, text string) (record, error) {
	switch tag {
	case tagSerialNumber:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return r, fmt.Errorf("%w: invalid %s %q: %w", domain.ErrDecode, tagSerialNumber, text, err)
		}
		r.id, r.hasID = id, true
	case tagCaseName:
		r.caseName = text
	case tagCaseNumber:
		r.caseCode = text
	case tagDecisionDate:
		// Некорректная дата не считается ошибкой: поле остается пустым.
		r.decisionDate, _ = domain.ParseDate(text)
	case tagCourtName:
		r.court = domain.ParseCourt(text)
	case tagCaseType:
		r.category = domain.ParseCaseCategory(text)
	case tagDecisionType:
		r.kind = domain.ParseDecisionKind(text)
	}
	return r, nil
}

// finish завершает разбор и строит прецеденты в порядке потока.
func finish(s listState) ([]domain.Precedent, error) {
	if s.err != nil {
		return nil, s.err
	}
	records := s.done
	if s.open {
		records = appendRecord(records, s.current)
	}
	result := make([]domain.Precedent, 0, len(records))
	for i, r := range records {
		if !r.hasID {
			return nil, fmt.Errorf("%w: record %d: missing %s", domain.ErrDecode, i, tagSerialNumber)
		}
		p := domain.NewPrecedent(r.id)
		p.Title = r.caseName
		p.CaseCode = r.caseCode
		p.DecisionDate = r.decisionDate
		p.Court = r.court
		p.Category = r.category
		p.Kind = r.kind
		result = append(result, p)
	}
	return result, nil
}

// ParseEvents прогоняет последовательность событий через автомат.
func ParseEvents(events []Event) ([]domain.Precedent, error) {
	var s listState
	for _, ev := range events {
		s = step(s, ev)
	}
	return finish(s)
}
