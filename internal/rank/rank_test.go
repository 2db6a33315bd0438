package rank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindlog/mindlog/internal/model"
)

func TestTokenize(t *testing.T) {
	require.Equal(t, []string{"react", "routing"}, Tokenize("the React routing"))
	require.Equal(t, []string{"cors", "api"}, Tokenize("CORS!! in the /api, CORS"))
	require.Empty(t, Tokenize("the and for"))
	require.Empty(t, Tokenize("a an to"))
	require.Empty(t, Tokenize(""))
	require.Equal(t, []string{"fix2"}, Tokenize("fix2 at"))
}

func TestTokenize_Deduplicates(t *testing.T) {
	require.Equal(t, []string{"cache"}, Tokenize("cache cache CACHE"))
}

func TestScore_SummaryOutweighsContent(t *testing.T) {
	terms := []string{"react"}

	inSummary := model.Entry{Summary: "chose react", Content: "some unrelated body"}
	inContent := model.Entry{Summary: "chose framework", Content: "we went with react"}

	require.Greater(t, Score(inSummary, terms), Score(inContent, terms))
}

func TestScore_NormalizedByLength(t *testing.T) {
	terms := []string{"cache"}

	short := model.Entry{Summary: "cache bug", Content: "cache invalidation broken"}
	long := model.Entry{
		Summary: "cache bug",
		Content: "cache invalidation broken " + strings.Repeat("filler words here ", 80),
	}

	require.Greater(t, Score(short, terms), Score(long, terms))
}

func TestScore_NoMatch(t *testing.T) {
	e := model.Entry{Summary: "database migration", Content: "postgres schema"}
	require.Zero(t, Score(e, []string{"react"}))
	require.Zero(t, Score(e, nil))
}
