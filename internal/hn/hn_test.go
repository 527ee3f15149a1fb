package hn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const frontPage = `
<html><body><table>
<tr class="athing" id="1001">
  <td><a class="storylink" href="https://blog.example.com/go-internals">Go internals</a></td>
</tr>
<tr class="athing" id="1002">
  <td><a class="storylink" href="item?id=1002">Ask HN: anyone using plan9?</a></td>
</tr>
<tr class="athing" id="1003">
  <td><span class="titleline"><a href="https://research.example.org/paper.pdf">A paper</a></span></td>
</tr>
<tr class="athing" id="1004">
  <td>no anchor here</td>
</tr>
<tr class="athing" id="1005">
  <td><a class="storylink" href="https://fifth.example.net/">Fifth story</a></td>
</tr>
</table></body></html>`

const commentsPage = `
<html><body>
<div class="comment"><a href="https://linked.example.com/lib" rel="nofollow">a lib</a></div>
<div class="comment"><a href="https://news.ycombinator.com/user?id=x">profile (no rel)</a></div>
<div class="comment"><a href="/internal/doc" rel="nofollow">relative</a></div>
<div class="comment"><a href="https://linked.example.com/lib" rel="nofollow">same lib again</a></div>
<div class="comment"><a href="mailto:me@example.com" rel="nofollow">mail me</a></div>
</body></html>`

func TestParseFrontPage(t *testing.T) {
	t.Parallel()

	stories, err := ParseFrontPage([]byte(frontPage), DefaultBaseURL, 10)
	require.NoError(t, err)
	require.Len(t, stories, 4, "rows without a story anchor are skipped")

	require.Equal(t, "1001", stories[0].ID)
	require.Equal(t, "Go internals", stories[0].Title)
	require.Equal(t, "https://blog.example.com/go-internals", stories[0].URL)

	// Relative hrefs resolve against the site base.
	require.Equal(t, "https://news.ycombinator.com/item?id=1002", stories[1].URL)

	// titleline markup variant.
	require.Equal(t, "https://research.example.org/paper.pdf", stories[2].URL)
}

func TestParseFrontPage_Limit(t *testing.T) {
	t.Parallel()

	stories, err := ParseFrontPage([]byte(frontPage), DefaultBaseURL, 2)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	require.Equal(t, "1001", stories[0].ID)
	require.Equal(t, "1002", stories[1].ID)
}

func TestParseFrontPage_Empty(t *testing.T) {
	t.Parallel()

	stories, err := ParseFrontPage([]byte("<html><body>maintenance</body></html>"), DefaultBaseURL, 10)
	require.NoError(t, err)
	require.Empty(t, stories)
}

func TestExtractCommentLinks(t *testing.T) {
	t.Parallel()

	links, err := ExtractCommentLinks([]byte(commentsPage), DefaultBaseURL)
	require.NoError(t, err)

	require.Equal(t, []string{
		"https://linked.example.com/lib",
		"https://news.ycombinator.com/internal/doc",
		"https://linked.example.com/lib",
	}, links, "nofollow anchors only, duplicates preserved, non-http dropped")
}

func TestCommentsURL(t *testing.T) {
	t.Parallel()

	got := CommentsURL(DefaultBaseURL, "424242")
	require.Equal(t, "https://news.ycombinator.com/item?id=424242", got)
}
