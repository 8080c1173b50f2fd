package m3u

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CapturesDurationAndFullAttributeSet(t *testing.T) {
	content := "#EXTM3U\n" +
		`#EXTINF:123.4 tvg-id="ch1" tvg-name="Channel One" tvg-logo="logo.png" tvg-shift="-2" ` +
		`group-title="News" catchup="append" catchup-source="?utc={utc}",Channel One Display` + "\n" +
		"http://example.com/stream1\n"

	channels := Parse(content)
	require.Len(t, channels, 1)
	ch := channels[0]
	assert.Equal(t, 123.4, ch.Duration)
	assert.Equal(t, "ch1", ch.TvgID)
	assert.Equal(t, "Channel One", ch.TvgName)
	assert.Equal(t, "logo.png", ch.Logo)
	assert.Equal(t, "-2", ch.TvgShift)
	assert.Equal(t, "News", ch.Group)
	assert.Equal(t, "append", ch.CatchupType)
	assert.Equal(t, "?utc={utc}", ch.CatchupSource)
	assert.Equal(t, "Channel One Display", ch.Name)
	assert.Equal(t, "http://example.com/stream1", ch.URL)
	assert.True(t, ch.HasEPG)
}

func TestParse_SkipsBlankLinesAndOrphanEXTINF(t *testing.T) {
	content := "#EXTM3U\n\n#EXTINF:-1,Orphan\n\n#EXTINF:-1,Real\nhttp://example.com/real\n"
	channels := Parse(content)
	require.Len(t, channels, 1)
	assert.Equal(t, "Real", channels[0].Name)
}

func TestDecodeBody_PassesThroughValidUTF8(t *testing.T) {
	body := []byte("#EXTM3U\n#EXTINF:-1,Café\nhttp://example.com/x\n")
	out, err := DecodeBody(body)
	require.NoError(t, err)
	assert.Equal(t, string(body), out)
}

func TestDecodeBody_TranscodesISO8859_1(t *testing.T) {
	raw := []byte{0x43, 0x61, 0x66, 0xE9} // "Caf" + Latin-1 0xE9 ("é"), invalid as UTF-8
	out, err := DecodeBody(raw)
	require.NoError(t, err)
	assert.Equal(t, "Café", out)
}

func TestToPlaylistItems_PrefersTvgNameOverDisplayName(t *testing.T) {
	channels := []Channel{{TvgID: "1", TvgName: "Tvg Name", Name: "Display Name", Group: "G", URL: "u"}}
	items := ToPlaylistItems(channels, "source-a")
	require.Len(t, items, 1)
	assert.Equal(t, "Tvg Name", items[0].Name)
	assert.Equal(t, "Display Name", items[0].Title)
	assert.Equal(t, "source-a", items[0].InputName)
}
