package rss

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	title, link, description, guid, author, category string
	pubDate                                          time.Time
}

func (i testItem) Title() string       { return i.title }
func (i testItem) Link() string        { return i.link }
func (i testItem) Description() string { return i.description }
func (i testItem) GUID() string        { return i.guid }
func (i testItem) Author() string      { return i.author }
func (i testItem) Category() string    { return i.category }

type datedItem struct{ testItem }

func (i datedItem) PubDate() time.Time { return i.pubDate }

func testChannel() ChannelConfig {
	return ChannelConfig{
		Title:       "대법원 판례공보",
		Link:        "https://library.scourt.go.kr/search/judg/press/case",
		Description: "대법원 판례공보",
	}
}

func TestRender_Success(t *testing.T) {
	items := []testItem{
		{title: "A vs B", link: "https://example.com/1", description: "<p>first</p>", guid: "1001", author: "대법원", category: "민사"},
		{title: "C vs D", link: "https://example.com/2?a=1&b=2", description: "<p>second</p>", guid: "1002", author: "서울고등법원", category: "형사"},
	}

	out, err := Render(testChannel(), items)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `<rss version="2.0">`)
	assert.Contains(t, out, "<title><![CDATA[A vs B]]></title>")
	assert.Contains(t, out, "<description><![CDATA[<p>first</p>]]></description>")
	assert.Contains(t, out, "<link>https://example.com/2?a=1&amp;b=2</link>")

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, "대법원 판례공보", feed.Title)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "A vs B", feed.Items[0].Title)
	assert.Equal(t, "1001", feed.Items[0].GUID)
	assert.Equal(t, "C vs D", feed.Items[1].Title)
	assert.Equal(t, "https://example.com/2?a=1&b=2", feed.Items[1].Link)
	assert.Equal(t, []string{"형사"}, feed.Items[1].Categories)
}

func TestRender_ItemsHaveSixChildren(t *testing.T) {
	items := make([]testItem, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, testItem{title: string(rune('a' + i)), guid: string(rune('0' + i))})
	}
	out, err := Render(testChannel(), items)
	require.NoError(t, err)

	dec := xml.NewDecoder(strings.NewReader(out))
	depth, itemDepth := 0, -1
	var children [][]string
	var guids []string
	var inGUID bool
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch tt := tok.(type) {
		case xml.StartElement:
			depth++
			if tt.Name.Local == "item" {
				itemDepth = depth
				children = append(children, nil)
			} else if itemDepth > 0 && depth == itemDepth+1 {
				children[len(children)-1] = append(children[len(children)-1], tt.Name.Local)
				inGUID = tt.Name.Local == "guid"
			}
		case xml.CharData:
			if inGUID {
				guids = append(guids, string(tt))
			}
		case xml.EndElement:
			inGUID = false
			if tt.Name.Local == "item" {
				itemDepth = -1
			}
			depth--
		}
	}

	require.Len(t, children, len(items))
	for _, c := range children {
		assert.Equal(t, []string{"title", "link", "description", "guid", "author", "category"}, c)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, guids)
}

func TestRender_LanguageOmitted(t *testing.T) {
	out, err := Render(testChannel(), []testItem{})
	require.NoError(t, err)
	assert.NotContains(t, out, "<language>")
	assert.NotContains(t, out, "<item>")
}

func TestRender_LanguagePresentAfterDescription(t *testing.T) {
	cfg := testChannel()
	cfg.Language = "ko-kr"
	out, err := Render(cfg, []testItem{{title: "x"}})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "<language>ko-kr</language>"))
	descEnd := strings.Index(out, "</description>")
	lang := strings.Index(out, "<language>")
	firstItem := strings.Index(out, "<item>")
	assert.Greater(t, lang, descEnd)
	assert.Less(t, lang, firstItem)
}

func TestRender_CDATATerminatorInContent(t *testing.T) {
	items := []testItem{{title: "a]]>b", description: "x]]>y"}}
	out, err := Render(testChannel(), items)
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "a]]>b", feed.Items[0].Title)
}

func TestRender_ControlCharactersReplaced(t *testing.T) {
	items := []testItem{{title: "a\x0bb", description: "x\x0cy\x01", author: "c\x1fd"}}
	out, err := Render(testChannel(), items)
	require.NoError(t, err)

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "a\uFFFDb", feed.Items[0].Title)
	assert.Equal(t, "x\uFFFDy\uFFFD", feed.Items[0].Description)
}

func TestSanitizeXMLText(t *testing.T) {
	assert.Equal(t, "탭\t줄\n끝\r", sanitizeXMLText("탭\t줄\n끝\r"))
	assert.Equal(t, "\uFFFD\uFFFD", sanitizeXMLText("\x00\x08"))
	assert.Equal(t, "a\uFFFDb", sanitizeXMLText("a\uFFFEb"))
	assert.Equal(t, "😀", sanitizeXMLText("😀"))
}

func TestRender_LastBuildDateFromDatedItems(t *testing.T) {
	older := time.Date(2024, 1, 10, 14, 0, 0, 0, time.FixedZone("KST", 9*3600))
	newer := older.AddDate(0, 1, 0)
	items := []Item{
		datedItem{testItem{title: "old", pubDate: older}},
		datedItem{testItem{title: "new", pubDate: newer}},
		testItem{title: "plain"},
	}
	out, err := Render(testChannel(), items)
	require.NoError(t, err)
	assert.Contains(t, out, "<lastBuildDate>"+newer.Format(time.RFC1123Z)+"</lastBuildDate>")
	assert.Equal(t, 3, strings.Count(out, "<item>"))
}
