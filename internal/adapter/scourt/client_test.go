package scourt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"caserss/internal/domain"
	"caserss/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu       sync.Mutex
	requests []usecase.Request
	respond  func(req usecase.Request) (*usecase.Response, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, req usecase.Request) (*usecase.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeFetcher) detailRequests() []usecase.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []usecase.Request
	for _, r := range f.requests {
		if strings.Contains(r.URL, "/textxml/info") {
			out = append(out, r)
		}
	}
	return out
}

func ok(body string) *usecase.Response {
	return &usecase.Response{Status: 200, Body: []byte(body)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const listBody = `{"resultListData":[
	{"SEQ_NO":101,"TITLE":"손해배상(기)","CASE_NUM":"2023다12345","LAW_DESC":"대법원","TRANS_CASE_CLASS_DESC":"민사","DECI_DATE":"2024.01.10","TEXT_FILE_LIST":"24a0101.xml"},
	{"SEQ_NO":"102","TITLE":"사기","CASE_NUM":"2023도777","LAW_DESC":"대법원","TRANS_CASE_CLASS_DESC":"형사","DECI_DATE":"2024.01.11","TEXT_FILE_LIST":null},
	{"SEQ_NO":103,"TITLE":"양도소득세부과처분취소","CASE_NUM":"2022두1","LAW_DESC":"대법원","TRANS_CASE_CLASS_DESC":"선거","DECI_DATE":"2024.01.12","TEXT_FILE_LIST":"24a0103.xml"}
]}`

const detailObjectBody = `{"contents":{
	"pubDate":"2024.02.15.",
	"judgeAbstract":"[1] 손해배상 범위 <판단>",
	"judgeNote":"요지",
	"decisionType":"전원합의체 판결",
	"judges":[{"role":"재판장","name":"홍길동","position":"대법원장"},{"role":"주심","name":"김철수","position":"대법관"}]
}}`

const detailXMLBody = `{"contents":"<case><pubDate>2024.03.01.</pubDate><judgeAbstract>세액</judgeAbstract><judgeNote>노트</judgeNote><decisionType>결정</decisionType><judges><judge><role>재판장</role><name>이영희</name><position>대법관</position></judge></judges></case>"}`

func routeByFile(req usecase.Request) (*usecase.Response, error) {
	if strings.Contains(req.URL, "/decisionSearch/result") {
		return ok(listBody), nil
	}
	form, _ := url.ParseQuery(string(req.Body))
	switch form.Get("filePath") {
	case "case_xml/2024/24a0101.xml":
		return ok(detailObjectBody), nil
	case "case_xml/2024/24a0103.xml":
		return ok(detailXMLBody), nil
	}
	return &usecase.Response{Status: 404}, nil
}

func TestClient_FetchList_Success(t *testing.T) {
	f := &fakeFetcher{respond: routeByFile}
	c := NewClient(f, discardLogger(), WithBaseURL("http://scourt.test"))

	got, err := c.FetchList(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []int64{101, 102, 103}, []int64{got[0].ID(), got[1].ID(), got[2].ID()})

	first := got[0]
	assert.Equal(t, "손해배상(기)", first.Title)
	assert.Equal(t, domain.SupremeCourt, first.Court)
	assert.Equal(t, domain.CategoryCivil, first.Category)
	assert.Equal(t, domain.NewDate(2024, time.January, 10), first.DecisionDate)
	assert.Equal(t, domain.NewDate(2024, time.February, 15), first.PublicationDate)
	assert.Equal(t, domain.KindEnBank, first.Kind)
	assert.Equal(t, []string{"홍길동", "김철수"}, first.JudgeNames())
	assert.Equal(t, "대법원 2024.01.10. 선고 2023다12345 전원합의체 판결", first.Citation())

	third := got[2]
	assert.Equal(t, domain.CategoryUnknown, third.Category)
	assert.Equal(t, domain.KindDecision, third.Kind)
	assert.Equal(t, "세액", third.Abstract)
	assert.Equal(t, []domain.Judge{{Role: "재판장", Name: "이영희", Position: "대법관"}}, third.Judges)

	list := f.requests[0]
	assert.Equal(t, "GET", list.Method)
	assert.Contains(t, list.URL, "param_lib_display=3")
	assert.Equal(t, "application/json", list.Header.Get("Accept"))
	assert.Equal(t, listCacheTTL, list.CacheTTL)
}

func TestClient_FetchList_NoDetailReference(t *testing.T) {
	f := &fakeFetcher{respond: routeByFile}
	c := NewClient(f, discardLogger(), WithBaseURL("http://scourt.test"))

	got, err := c.FetchList(context.Background(), 3)
	require.NoError(t, err)

	second := got[1]
	assert.Equal(t, int64(102), second.ID())
	assert.Empty(t, second.Judges)
	assert.Equal(t, domain.KindUnknown, second.Kind)
	assert.Empty(t, second.Abstract)
	assert.Empty(t, second.Summary)
	assert.True(t, second.PublicationDate.IsZero())

	details := f.detailRequests()
	require.Len(t, details, 2, "no detail fetch for the record without a reference")
	for _, r := range details {
		assert.NotContains(t, string(r.Body), "102")
	}
}

func TestClient_FetchList_DetailsInListOrder(t *testing.T) {
	f := &fakeFetcher{respond: routeByFile}
	c := NewClient(f, discardLogger(), WithBaseURL("http://scourt.test"))

	_, err := c.FetchList(context.Background(), 3)
	require.NoError(t, err)

	details := f.detailRequests()
	require.Len(t, details, 2)
	assert.Contains(t, string(details[0].Body), "24a0101.xml")
	assert.Contains(t, string(details[1].Body), "24a0103.xml")
	assert.Equal(t, "POST", details[0].Method)
	assert.Equal(t, "application/x-www-form-urlencoded", details[0].Header.Get("Content-Type"))
}

func TestClient_FetchList_ConcurrentDetailsKeepOrder(t *testing.T) {
	f := &fakeFetcher{respond: routeByFile}
	c := NewClient(f, discardLogger(), WithBaseURL("http://scourt.test"), WithDetailConcurrency(4))

	got, err := c.FetchList(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.KindEnBank, got[0].Kind)
	assert.Equal(t, domain.KindUnknown, got[1].Kind)
	assert.Equal(t, domain.KindDecision, got[2].Kind)
}

func TestClient_FetchList_DetailTransportFailureAborts(t *testing.T) {
	f := &fakeFetcher{respond: func(req usecase.Request) (*usecase.Response, error) {
		if strings.Contains(req.URL, "/decisionSearch/result") {
			return ok(listBody), nil
		}
		return nil, errors.New("connection reset")
	}}
	c := NewClient(f, discardLogger(), WithBaseURL("http://scourt.test"))

	got, err := c.FetchList(context.Background(), 3)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Len(t, f.detailRequests(), 1, "first failure stops remaining detail fetches")
}

func TestClient_FetchList_DetailDecodeFailureAborts(t *testing.T) {
	f := &fakeFetcher{respond: func(req usecase.Request) (*usecase.Response, error) {
		if strings.Contains(req.URL, "/decisionSearch/result") {
			return ok(listBody), nil
		}
		return ok(`{"contents":null}`), nil
	}}
	c := NewClient(f, discardLogger(), WithBaseURL("http://scourt.test"))

	_, err := c.FetchList(context.Background(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestClient_FetchList_ListDecodeFailure(t *testing.T) {
	for name, body := range map[string]string{
		"invalid json":   `{"resultListData": [`,
		"missing list":   `{"other": []}`,
		"missing seq no": `{"resultListData":[{"TITLE":"x","CASE_NUM":"1","DECI_DATE":"2024.01.01"}]}`,
		"bad date":       `{"resultListData":[{"SEQ_NO":1,"TITLE":"x","CASE_NUM":"1","DECI_DATE":"soon"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			f := &fakeFetcher{respond: func(usecase.Request) (*usecase.Response, error) { return ok(body), nil }}
			c := NewClient(f, discardLogger())
			_, err := c.FetchList(context.Background(), 5)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDecode)
		})
	}
}

func TestClient_FetchList_ClampsLimit(t *testing.T) {
	f := &fakeFetcher{respond: func(usecase.Request) (*usecase.Response, error) {
		return ok(`{"resultListData":[]}`), nil
	}}
	c := NewClient(f, discardLogger())

	_, err := c.FetchList(context.Background(), 1000)
	require.NoError(t, err)
	assert.Contains(t, f.requests[0].URL, "param_lib_display=100")
}

func TestItem_Mapping(t *testing.T) {
	p := domain.NewPrecedent(101)
	p.Title = "손해배상(기)"
	p.CaseCode = "2023다12345"
	p.Court = domain.SupremeCourt
	p.Category = domain.CategoryCivil
	p.DecisionDate = domain.NewDate(2024, time.January, 10)
	p.PublicationDate = domain.NewDate(2024, time.February, 15)
	p.Kind = domain.KindJudgement
	p.Abstract = "a < b"
	p.Summary = "c & d"
	p.Judges = []domain.Judge{{Name: "홍길동"}, {Name: "김철수"}}

	it := NewItem(p)
	assert.Equal(t, "손해배상(기) (대법원 2024.01.10. 선고 2023다12345 판결)", it.Title())
	assert.Equal(t, "https://library.scourt.go.kr/search/judg/judgDetail?seqNo=101&kindCode=2", it.Link())
	assert.Equal(t, "<h2>판시사항</h2><p>a &lt; b</p><h2>판결요지</h2><p>c &amp; d</p>", it.Description())
	assert.Equal(t, "101", it.GUID())
	assert.Equal(t, "대법원 (홍길동, 김철수)", it.Author())
	assert.Equal(t, "민사", it.Category())
	assert.Equal(t, "Thu, 15 Feb 2024 14:00:00 +0900", it.PubDate().Format(time.RFC1123Z))

	p.Court = domain.NamedCourt("서울고등법원")
	p.PublicationDate = domain.Date{}
	it = NewItem(p)
	assert.Contains(t, it.Link(), "kindCode=1")
	assert.True(t, it.PubDate().IsZero())
}
