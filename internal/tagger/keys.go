// file: internal/tagger/keys.go
// version: 1.0.0
// guid: 1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809

package tagger

// MP4 container tag keys, compliant with Mp3tag's "Audible API.inc" web
// source so that files remain interchangeable with libraries tagged by that
// tool chain.
const (
	// Basic atoms
	KeyTitle     = "\xa9nam"
	KeyAlbum     = "\xa9alb"
	KeyYear      = "\xa9day"
	KeyArtist    = "\xa9ART"
	KeyAlbumArt  = "aART"
	KeyComposer  = "\xa9wrt"
	KeyComment   = "\xa9cmt"
	KeyCopyright = "\xa9cpy"
	KeyGenre     = "\xa9gen"

	// iTunes freeform tags
	KeyASIN         = "----:com.apple.iTunes:ASIN"
	KeyLanguage     = "----:com.apple.iTunes:LANGUAGE"
	KeyFormat       = "----:com.apple.iTunes:FORMAT"
	KeySubtitle     = "----:com.apple.iTunes:SUBTITLE"
	KeyReleaseTime  = "----:com.apple.iTunes:RELEASETIME"
	KeyAlbumArtists = "----:com.apple.iTunes:ALBUMARTISTS"
	KeySeries       = "----:com.apple.iTunes:SERIES"
	KeySeriesPart   = "----:com.apple.iTunes:SERIES-PART"
	KeyRating       = "----:com.apple.iTunes:RATING"
	KeyRatingWMP    = "----:com.apple.iTunes:RATING WMP"
	KeyExplicit     = "----:com.apple.iTunes:EXPLICIT"
	KeyWWWAudioFile = "----:com.apple.iTunes:WWWAUDIOFILE"
	KeyAudibleASIN  = "----:com.apple.iTunes:AUDIBLE_ASIN"

	// Alternative tags for compatibility with older readers
	KeyAlbumSort    = "soal"
	KeyShowMovement = "shwm"
	KeyGapless      = "pgap"
	KeyStick        = "stik"
	KeySimpleASIN   = "asin"
	KeyCDEKASIN     = "CDEK"
	KeyDescAlt      = "desc"
	KeyDescAlt2     = "\xa9des"
	KeyPublisherAlt = "\xa9pub"
	KeyNarratorAlt  = "\xa9nrt"
	KeySeriesAlt    = "\xa9mvn"
	KeyGroup        = "\xa9grp"
)

// IntegerKeys are the keys a backend must coerce to integers when the
// container requires it. Coercion failure skips the single key, never the
// whole apply.
var IntegerKeys = map[string]bool{
	KeyShowMovement: true,
	KeyStick:        true,
}
