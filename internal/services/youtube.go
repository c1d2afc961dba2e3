// YouTube Data API v3 adapter.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/rama26012004/moodtunes/internal/feed"
	"github.com/rama26012004/moodtunes/internal/shared"
)

const (
	youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

	// musicCategoryID restricts searches to the music category.
	musicCategoryID = "10"

	videoLimit   = 5
	minViewCount = 1000
	minDuration  = 60 * time.Second
)

// requestTimeout bounds every upstream call; a hung provider surfaces as a
// rejected outcome instead of stalling the whole generation.
const requestTimeout = 10 * time.Second

// orderOptions is sampled per search so repeated requests return different
// result pages.
var orderOptions = []string{"date", "relevance", "viewCount"}

// excludeKeywords drops non-music videos that rank well for music queries.
var excludeKeywords = []string{
	"reaction", "review", "interview", "analysis", "vlog",
	"shorts", "trailer", "asmr", "recap", "top",
}

// surpriseVideoIDPool seeds the surprise feature with starting points for
// recommendations.
var surpriseVideoIDPool = []string{
	"lPXi-5XhDPE", "6NNmDcisnQ8", "tRj67DHPsro", "zPyg4N7bcHM",
	"0d8R1u4vj1Q", "bHbSqH_xf0A", "khRJMiquAjA", "vW2HWHYd_jg", "z79SoohPrgg",
	"4-S4unSPNJQ", "jyWqLnUYkEc", "nSveado5ZKU", "-I4iPvLblVE", "PIqMYtF0DoA",
	"Xyj0Mq-YdUY", "n7YSG0AV5iI", "VsTY-kyp2Js", "ExN66QlCf7Y", "IcIv_YExiJ8",
	"Y_jvuLZW0_I", "Vn4bBO78bJc", "fviMGUZcUgk", "H4Dk2T0AQ2U", "m-HeBQLb7C8",
	"1-Au_oI3iBM", "GKN-GEkJihQ", "zAd4uTaUiDM", "J1GerpUssss", "428zWT8w8IE",
}

// searchKeywords feeds the keyword-videos endpoint.
var searchKeywords = []string{
	"playlist", "playlist, slowed", "playlist, reverb", "playlist, edits",
	"playlist, aesthetic", "playlist, mood booster", "late night drive playlist",
	"nostalgia playlist", "study with me playlist", "dark academia playlist",
	"classical playlist", "chillhop playlist", "rainy day playlist",
	"vaporwave playlist",
}

type youtubeThumbnails struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

type youtubeSnippet struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Thumbnails  youtubeThumbnails `json:"thumbnails"`
}

type youtubeSearchItem struct {
	ID struct {
		VideoID    string `json:"videoId"`
		PlaylistID string `json:"playlistId"`
	} `json:"id"`
	Snippet youtubeSnippet `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items []youtubeSearchItem `json:"items"`
}

type youtubeVideoItem struct {
	ID             string         `json:"id"`
	Snippet        youtubeSnippet `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}

type youtubeVideoResponse struct {
	Items []youtubeVideoItem `json:"items"`
}

// YouTubeService is the API-key client for the YouTube data API. The
// surprise pool's rotation state lives on the service value, not in package
// state, so tests can construct isolated instances.
type YouTubeService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	mu          sync.Mutex
	pool        []string
	lastVideoID string
}

func NewYouTubeService(apiKey string, logger *log.Logger) (*YouTubeService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: youtube api_key", shared.ErrMissingCredentials)
	}
	return &YouTubeService{
		apiKey:     apiKey,
		baseURL:    youtubeBaseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		logger:     logger,
		pool:       surpriseVideoIDPool,
	}, nil
}

func (y *YouTubeService) Name() string { return "YouTube" }

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: youtube API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var durationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseISODuration converts an ISO 8601 duration into seconds. Malformed or
// missing durations parse as zero, which the filter then drops.
func parseISODuration(iso string) time.Duration {
	match := durationPattern.FindStringSubmatch(iso)
	if match == nil {
		return 0
	}
	hours, _ := strconv.Atoi(zeroDefault(match[1]))
	minutes, _ := strconv.Atoi(zeroDefault(match[2]))
	seconds, _ := strconv.Atoi(zeroDefault(match[3]))
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
}

func zeroDefault(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// filterVideos drops shorts, low-view uploads, and titles matching the
// exclusion list, then shuffles and truncates for variety.
func filterVideos(items []youtubeVideoItem) []feed.Record {
	kept := lo.Filter(items, func(v youtubeVideoItem, _ int) bool {
		views, _ := strconv.Atoi(v.Statistics.ViewCount)
		title := strings.ToLower(v.Snippet.Title)
		if parseISODuration(v.ContentDetails.Duration) <= minDuration || views < minViewCount {
			return false
		}
		return !lo.SomeBy(excludeKeywords, func(kw string) bool { return strings.Contains(title, kw) })
	})

	records := lo.Map(kept, func(v youtubeVideoItem, _ int) feed.Record {
		return feed.Record{
			Title:     v.Snippet.Title,
			URL:       "https://www.youtube.com/watch?v=" + v.ID,
			Thumbnail: v.Snippet.Thumbnails.Default.URL,
		}
	})

	records = shared.Shuffle(records)
	if len(records) > videoLimit {
		records = records[:videoLimit]
	}
	return records
}

// searchFilteredVideos runs one randomized search, hydrates the hits with
// duration and view statistics, and filters them.
func (y *YouTubeService) searchFilteredVideos(ctx context.Context, queries []string) (feed.Payload, error) {
	params := url.Values{}
	params.Set("part", "snippet,id")
	params.Set("q", queries[rand.Intn(len(queries))])
	params.Set("order", orderOptions[rand.Intn(len(orderOptions))])
	params.Set("type", "video")
	params.Set("videoCategoryId", musicCategoryID)
	params.Set("maxResults", "50")

	var search youtubeSearchResponse
	if err := y.doRequest(ctx, "/search", params, &search); err != nil {
		return feed.Payload{}, err
	}

	ids := lo.FilterMap(search.Items, func(item youtubeSearchItem, _ int) (string, bool) {
		return item.ID.VideoID, item.ID.VideoID != ""
	})
	if len(ids) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: no videos matched", shared.ErrNoResults)
	}

	detailParams := url.Values{}
	detailParams.Set("part", "snippet,contentDetails,statistics")
	detailParams.Set("id", strings.Join(ids, ","))

	var details youtubeVideoResponse
	if err := y.doRequest(ctx, "/videos", detailParams, &details); err != nil {
		return feed.Payload{}, err
	}

	records := filterVideos(details.Items)
	if len(records) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: no suitable videos after filtering", shared.ErrNoResults)
	}
	return feed.ListOf(records...), nil
}

// VideosByMood searches music videos for a mood with a randomized query
// variation.
func (y *YouTubeService) VideosByMood(ctx context.Context, mood string) (feed.Payload, error) {
	return y.searchFilteredVideos(ctx, []string{
		mood + " music", mood + " playlist", mood + " hits", mood + " songs",
	})
}

// VideosByGenre searches music videos for a genre.
func (y *YouTubeService) VideosByGenre(ctx context.Context, genre string) (feed.Payload, error) {
	return y.searchFilteredVideos(ctx, []string{
		genre + " music", genre + " hits", genre + " songs", genre + " playlist",
	})
}

// VideosByArtist searches an artist's music videos.
func (y *YouTubeService) VideosByArtist(ctx context.Context, artist string) (feed.Payload, error) {
	return y.searchFilteredVideos(ctx, []string{
		artist + " official music video", artist + " lyric video",
		artist + " songs", artist + " hits", artist + " playlist",
	})
}

// BundlePlaylists searches actual playlists (not videos) for the
// recommendations bundle.
func (y *YouTubeService) BundlePlaylists(ctx context.Context, query string) ([]feed.Record, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "playlist")
	params.Set("maxResults", strconv.Itoa(videoLimit))

	var search youtubeSearchResponse
	if err := y.doRequest(ctx, "/search", params, &search); err != nil {
		return nil, err
	}

	complete := lo.Filter(search.Items, func(item youtubeSearchItem, _ int) bool {
		return item.Snippet.Title != "" && item.ID.PlaylistID != ""
	})
	return lo.Map(complete, func(item youtubeSearchItem, _ int) feed.Record {
		return feed.Record{
			Name:  item.Snippet.Title,
			URL:   "https://www.youtube.com/playlist?list=" + item.ID.PlaylistID,
			Image: item.Snippet.Thumbnails.Default.URL,
		}
	}), nil
}

// nextSurpriseID picks a random pool entry, never repeating the previous
// pick.
func (y *YouTubeService) nextSurpriseID() string {
	y.mu.Lock()
	defer y.mu.Unlock()
	id := y.pool[rand.Intn(len(y.pool))]
	for len(y.pool) > 1 && id == y.lastVideoID {
		id = y.pool[rand.Intn(len(y.pool))]
	}
	y.lastVideoID = id
	return id
}

// Surprise derives a search query from a rotating seed video's tags and
// returns three recommended videos.
func (y *YouTubeService) Surprise(ctx context.Context) (feed.Payload, error) {
	seedID := y.nextSurpriseID()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", seedID)

	var seed youtubeVideoResponse
	if err := y.doRequest(ctx, "/videos", params, &seed); err != nil {
		return feed.Payload{}, err
	}
	if len(seed.Items) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: seed video %s", shared.ErrNoResults, seedID)
	}

	snippet := seed.Items[0].Snippet
	tags := shared.Shuffle(snippet.Tags)
	if len(tags) > 2 {
		tags = tags[:2]
	}
	query := strings.Join(tags, " ")
	if query == "" {
		query = snippet.Title
	}

	searchParams := url.Values{}
	searchParams.Set("part", "snippet")
	searchParams.Set("type", "video")
	searchParams.Set("maxResults", "3")
	searchParams.Set("q", query)
	searchParams.Set("order", orderOptions[rand.Intn(len(orderOptions))])
	searchParams.Set("videoCategoryId", musicCategoryID)

	var search youtubeSearchResponse
	if err := y.doRequest(ctx, "/search", searchParams, &search); err != nil {
		return feed.Payload{}, err
	}

	records := searchItemRecords(search.Items)
	if len(records) == 0 {
		return feed.Payload{}, fmt.Errorf("%w: no recommended videos", shared.ErrNoResults)
	}
	return feed.ListOf(records...), nil
}

// KeywordVideos fetches three videos for a randomly chosen keyword and
// returns the keyword alongside the payload.
func (y *YouTubeService) KeywordVideos(ctx context.Context) (string, feed.Payload, error) {
	keyword := searchKeywords[rand.Intn(len(searchKeywords))]

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "50")
	params.Set("q", keyword)
	params.Set("videoCategoryId", musicCategoryID)

	var search youtubeSearchResponse
	if err := y.doRequest(ctx, "/search", params, &search); err != nil {
		return "", feed.Payload{}, err
	}

	records := searchItemRecords(shared.Shuffle(search.Items))
	if len(records) > 3 {
		records = records[:3]
	}
	if len(records) == 0 {
		return "", feed.Payload{}, fmt.Errorf("%w: keyword %q", shared.ErrNoResults, keyword)
	}
	return keyword, feed.ListOf(records...), nil
}

func searchItemRecords(items []youtubeSearchItem) []feed.Record {
	withID := lo.Filter(items, func(item youtubeSearchItem, _ int) bool { return item.ID.VideoID != "" })
	return lo.Map(withID, func(item youtubeSearchItem, _ int) feed.Record {
		return feed.Record{
			Title:     item.Snippet.Title,
			URL:       "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Thumbnail: item.Snippet.Thumbnails.Default.URL,
		}
	})
}
