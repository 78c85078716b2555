package logstream

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendNeverExceedsWindow(t *testing.T) {
	s := New(100)

	for i := 0; i < 250; i++ {
		s.Append(fmt.Sprintf("line %d", i))
		require.LessOrEqual(t, s.Len(), 100)
	}

	msgs := s.Messages()
	require.Len(t, msgs, 100)
	assert.Equal(t, "line 150", msgs[0])
	assert.Equal(t, "line 249", msgs[99])
}

func TestWindowIsExactAfterBatchAppend(t *testing.T) {
	s := New(5)
	s.Append("a", "b", "c")
	s.Append("d", "e", "f", "g")

	assert.Equal(t, []string{"c", "d", "e", "f", "g"}, s.Messages())
}

func TestBatchLargerThanWindowKeepsTail(t *testing.T) {
	s := New(3)
	s.Append("1", "2", "3", "4", "5")
	assert.Equal(t, []string{"3", "4", "5"}, s.Messages())
}

func TestDefaultWindow(t *testing.T) {
	s := New(0)
	assert.Equal(t, DefaultWindow, s.Window())
}

func TestPrefixedHelpers(t *testing.T) {
	s := New(10)
	s.System("New device discovered: A")
	s.Tip("Try Kill ADB")
	s.Error("boom")

	assert.Equal(t, []string{
		"[SYSTEM] New device discovered: A",
		"[TIP] Try Kill ADB",
		"[ERROR] boom",
	}, s.Messages())
}

func TestLinesSplitsBlock(t *testing.T) {
	s := New(10)
	s.Lines("first\r\nsecond\n", "[ADB] ")
	s.Lines("", "[ADB] ")

	assert.Equal(t, []string{"[ADB] first", "[ADB] second"}, s.Messages())
}

func TestClear(t *testing.T) {
	s := New(10)
	s.Append("x", "y")
	s.Clear()
	assert.Zero(t, s.Len())
}

func TestSinceReturnsNewerEntries(t *testing.T) {
	s := New(10)
	s.Append("a", "b", "c")
	entries := s.Entries()

	newer := s.Since(entries[0].ID)
	require.Len(t, newer, 2)
	assert.Equal(t, "b", newer[0].Message)

	upToDate := s.Since(entries[2].ID)
	assert.NotNil(t, upToDate, "an up-to-date caller gets an empty list, not nil")
	assert.Empty(t, upToDate)
	assert.Len(t, s.Since(""), 3)
}

func TestSubscribeReceivesAppendsInOrder(t *testing.T) {
	s := New(2)
	var got []string
	unsubscribe := s.Subscribe(func(e Entry) { got = append(got, e.Message) })

	s.Append("one", "two", "three")
	unsubscribe()
	s.Append("four")

	assert.Equal(t, []string{"one", "two", "three"}, got)
}
