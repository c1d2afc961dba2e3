package feed

// Platform identifies which streaming service an item came from. The client
// picks its inline player based on this value.
type Platform string

const (
	PlatformSpotify Platform = "Spotify"
	PlatformYouTube Platform = "YouTube"
)

// Placeholder cover art served by the client when an upstream record carries
// no image of its own.
const (
	PlaceholderThumbnail = "/image1.jpeg"
	PlaceholderImage     = "/image2.jpeg"
)

// Artist is one structured performer entry.
type Artist struct {
	Name string `json:"name"`
}

// TopTrack is a track carried inside a related artist enrichment.
type TopTrack struct {
	Name  string  `json:"name"`
	URL   string  `json:"url"`
	Album *string `json:"album"`
	Image *string `json:"image"`
}

// RelatedArtist enriches an item with a similar artist and their top tracks.
type RelatedArtist struct {
	Name      string     `json:"name"`
	TopTracks []TopTrack `json:"topTracks"`
}

// Item is the unified record every upstream payload normalizes into.
//
// Optional fields are pointers rendered as JSON null rather than omitted, so
// the client never branches on key presence. Artists and RelatedArtists are
// never nil. Image and Thumbnail are cross-filled from each other and always
// populated, falling back to the placeholder paths.
type Item struct {
	Name           string          `json:"name"`
	Title          string          `json:"title"`
	ArtistName     *string         `json:"artistName"`
	Artists        []Artist        `json:"artists"`
	URL            string          `json:"url"`
	Album          *string         `json:"album"`
	Image          *string         `json:"image"`
	Thumbnail      *string         `json:"thumbnail"`
	Platform       Platform        `json:"platform"`
	RelatedArtists []RelatedArtist `json:"relatedArtists"`
}
