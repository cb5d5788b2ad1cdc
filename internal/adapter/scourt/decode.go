package scourt

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"caserss/internal/domain"

	"golang.org/x/net/html/charset"
)

type listJSON struct {
	ResultListData *[]overviewJSON `json:"resultListData"`
}

type overviewJSON struct {
	SeqNo     json.Number `json:"SEQ_NO"`
	Title     string      `json:"TITLE"`
	CaseNum   string      `json:"CASE_NUM"`
	LawDesc   string      `json:"LAW_DESC"`
	CaseClass string      `json:"TRANS_CASE_CLASS_DESC"`
	DeciDate  string      `json:"DECI_DATE"`
	TextFile  *string     `json:"TEXT_FILE_LIST"`
}

type detailEnvelopeJSON struct {
	Contents json.RawMessage `json:"contents"`
}

type detailJSON struct {
	PubDate       string      `json:"pubDate"`
	JudgeAbstract string      `json:"judgeAbstract"`
	JudgeNote     string      `json:"judgeNote"`
	DecisionType  string      `json:"decisionType"`
	Judges        []judgeJSON `json:"judges"`
}

type judgeJSON struct {
	Role     string `json:"role" xml:"role"`
	Name     string `json:"name" xml:"name"`
	Position string `json:"position" xml:"position"`
}

type detailXML struct {
	PubDate       string      `xml:"pubDate"`
	JudgeAbstract string      `xml:"judgeAbstract"`
	JudgeNote     string      `xml:"judgeNote"`
	DecisionType  string      `xml:"decisionType"`
	Judges        []judgeJSON `xml:"judges>judge"`
}

// overview - запись из списка до слияния с деталями.
type overview struct {
	precedent  domain.Precedent
	detailFile string
}

// detail - дополнительные поля одной записи.
type detail struct {
	publicationDate domain.Date
	abstract        string
	summary         string
	kind            domain.DecisionKind
	judges          []domain.Judge
}

func decodeList(body []byte) ([]overview, error) {
	var env listJSON
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: list response: %w", domain.ErrDecode, err)
	}
	if env.ResultListData == nil {
		return nil, fmt.Errorf("%w: list response: missing resultListData", domain.ErrDecode)
	}
	result := make([]overview, 0, len(*env.ResultListData))
	for i, raw := range *env.ResultListData {
		ov, err := raw.toOverview()
		if err != nil {
			return nil, fmt.Errorf("%w: list record %d: %w", domain.ErrDecode, i, err)
		}
		result = append(result, ov)
	}
	return result, nil
}

func (o overviewJSON) toOverview() (overview, error) {
	id, err := o.SeqNo.Int64()
	if err != nil {
		return overview{}, fmt.Errorf("invalid SEQ_NO %q: %w", o.SeqNo, err)
	}
	if strings.TrimSpace(o.Title) == "" {
		return overview{}, errors.New("missing TITLE")
	}
	if strings.TrimSpace(o.CaseNum) == "" {
		return overview{}, errors.New("missing CASE_NUM")
	}
	decided, err := domain.ParseDate(o.DeciDate)
	if err != nil {
		return overview{}, fmt.Errorf("DECI_DATE: %w", err)
	}
	p := domain.NewPrecedent(id)
	p.Title = strings.TrimSpace(o.Title)
	p.CaseCode = strings.TrimSpace(o.CaseNum)
	p.Court = domain.ParseCourt(o.LawDesc)
	p.Category = domain.ParseCaseCategory(o.CaseClass)
	p.DecisionDate = decided

	ov := overview{precedent: p}
	if o.TextFile != nil {
		ov.detailFile = strings.TrimSpace(*o.TextFile)
	}
	return ov, nil
}

// decodeDetail разбирает конверт детального ответа. Поле contents может быть
// объектом JSON либо строкой с тем же содержимым в виде XML.
func decodeDetail(body []byte) (detail, error) {
	var env detailEnvelopeJSON
	if err := json.Unmarshal(body, &env); err != nil {
		return detail{}, fmt.Errorf("%w: detail response: %w", domain.ErrDecode, err)
	}
	contents := bytes.TrimSpace(env.Contents)
	if len(contents) == 0 || bytes.Equal(contents, []byte("null")) {
		return detail{}, fmt.Errorf("%w: detail response: missing contents", domain.ErrDecode)
	}

	var d detailJSON
	switch contents[0] {
	case '"':
		var payload string
		if err := json.Unmarshal(contents, &payload); err != nil {
			return detail{}, fmt.Errorf("%w: detail contents: %w", domain.ErrDecode, err)
		}
		x, err := decodeDetailXML(payload)
		if err != nil {
			return detail{}, fmt.Errorf("%w: detail contents: %w", domain.ErrDecode, err)
		}
		d = detailJSON(x)
	default:
		if err := json.Unmarshal(contents, &d); err != nil {
			return detail{}, fmt.Errorf("%w: detail contents: %w", domain.ErrDecode, err)
		}
	}
	return d.toDetail(), nil
}

func decodeDetailXML(payload string) (detailXML, error) {
	var x detailXML
	dec := xml.NewDecoder(strings.NewReader(payload))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&x); err != nil {
		return detailXML{}, err
	}
	return x, nil
}

func (d detailJSON) toDetail() detail {
	// Дата публикации необязательна: некорректное значение дает пустую дату.
	published, _ := domain.ParseDate(d.PubDate)
	judges := make([]domain.Judge, 0, len(d.Judges))
	for _, j := range d.Judges {
		judges = append(judges, domain.Judge{
			Role:     strings.TrimSpace(j.Role),
			Name:     strings.TrimSpace(j.Name),
			Position: strings.TrimSpace(j.Position),
		})
	}
	return detail{
		publicationDate: published,
		abstract:        d.JudgeAbstract,
		summary:         d.JudgeNote,
		kind:            domain.ParseDecisionKind(d.DecisionType),
		judges:          judges,
	}
}

func merge(ov overview, d detail) domain.Precedent {
	p := ov.precedent
	p.PublicationDate = d.publicationDate
	p.Abstract = d.abstract
	p.Summary = d.summary
	p.Kind = d.kind
	if d.judges != nil {
		p.Judges = d.judges
	}
	return p
}
