package whitehouse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveId(t *testing.T) {
	for _, tt := range []struct {
		name  string
		url   string
		title string
		want  string
	}{
		{
			name: "url path",
			url:  "https://www.whitehouse.gov/presidential-actions/foo-bar/",
			want: "presidential-actions-foo-bar",
		},
		{
			name: "nested path",
			url:  "https://www.whitehouse.gov/presidential-actions/2024/03/some-order/",
			want: "presidential-actions-2024-03-some-order",
		},
		{
			name:  "title fallback",
			url:   "https://www.whitehouse.gov/",
			title: "My Order!! 2024",
			want:  "my-order-2024",
		},
		{
			name:  "title fallback collapses separators",
			url:   "",
			title: "Executive   Order -- On Something",
			want:  "executive-order-on-something",
		},
		{
			name:  "title fallback keeps accented letters",
			url:   "",
			title: "Ação Executiva 7!",
			want:  "ação-executiva-7",
		},
		{
			name:  "title fallback keeps edge separators",
			url:   "",
			title: "-Edge Case-",
			want:  "-edge-case-",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DeriveId(tt.url, tt.title))
		})
	}
}

func TestDeriveIdIsStable(t *testing.T) {
	url := "https://www.whitehouse.gov/presidential-actions/foo-bar/"
	require.Equal(t, DeriveId(url, "ignored"), DeriveId(url, "other title"))
}

func TestDeriveIdTruncatesLongTitles(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "verylongword "
	}
	id := DeriveId("", long)
	require.LessOrEqual(t, len(id), 100)
}

func TestParseOrderNumber(t *testing.T) {
	require.Equal(t, "14110", ParseOrderNumber("Executive Order 14110 on Artificial Intelligence"))
	require.Equal(t, "99", ParseOrderNumber("executive order 99"))
	require.Equal(t, "", ParseOrderNumber("A Proclamation on Flag Day"))
}
