package services

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"

	"ytresearch-backend/internal/ytutil"
)

// ScrapeTranscriptService is the unauthenticated caption strategy. It needs
// no credential and spends no API quota: it reads the public watch page's
// caption track list, applies the selection policy, and fetches the
// timedtext XML. The transcript-api library acts as a resilience fallback
// when the page layout shifts.
type ScrapeTranscriptService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
}

func NewScrapeTranscriptService() *ScrapeTranscriptService {
	return &ScrapeTranscriptService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
	}
}

type scrapeTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated, absent for manual
}

func (t scrapeTrack) isAuto() bool { return t.Kind == "asr" }

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func (s *ScrapeTranscriptService) GetCaptions(ctx context.Context, videoID string) (*CaptionResult, error) {
	result, pageErr := s.getCaptionsViaWatchPage(ctx, videoID)
	if pageErr == nil {
		return result, nil
	}

	// Page scrape failed; try the transcript API library before giving up.
	text, lang, apiErr := s.getCaptionsViaTranscriptAPI(videoID)
	if apiErr != nil {
		log.Printf("Transcript API fallback also failed for %s: %v", videoID, apiErr)
		return nil, pageErr
	}

	return &CaptionResult{
		Text:     text,
		Language: lang,
		// Track kind is not observable through the library; scraped
		// fallback tracks are overwhelmingly speech-recognition ones.
		IsAutoGenerated: true,
		WordCount:       ytutil.WordCount(text),
	}, nil
}

func (s *ScrapeTranscriptService) getCaptionsViaWatchPage(ctx context.Context, videoID string) (*CaptionResult, error) {
	pageHTML, err := s.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, &CaptionError{Reason: FailureVideoNotFound, Err: err}
	}

	tracks, err := parseCaptionTracks(pageHTML)
	if err != nil {
		return nil, err
	}

	track := selectScrapeTrack(tracks)
	if track == nil {
		return nil, &CaptionError{Reason: FailureNoTracks}
	}

	text, err := s.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, &CaptionError{Reason: FailureDownloadFailed, Err: err}
	}

	return &CaptionResult{
		Text:            text,
		Language:        track.LanguageCode,
		IsAutoGenerated: track.isAuto(),
		WordCount:       ytutil.WordCount(text),
	}, nil
}

func (s *ScrapeTranscriptService) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("watch page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}
	return string(body), nil
}

var captionTracksRe = regexp.MustCompile(`"captionTracks"\s*:\s*(\[.*?\])\s*,\s*"`)

func parseCaptionTracks(pageHTML string) ([]scrapeTrack, error) {
	m := captionTracksRe.FindStringSubmatch(pageHTML)
	if len(m) < 2 {
		if strings.Contains(pageHTML, `"playabilityStatus":{"status":"ERROR"`) {
			return nil, &CaptionError{Reason: FailureVideoNotFound, Err: errors.New("video unavailable")}
		}
		return nil, &CaptionError{Reason: FailureDisabled, Err: errors.New("no caption track list on watch page")}
	}

	var tracks []scrapeTrack
	if err := json.Unmarshal([]byte(m[1]), &tracks); err != nil {
		return nil, &CaptionError{Reason: FailureDownloadFailed, Err: fmt.Errorf("caption track list unparsable: %w", err)}
	}
	return tracks, nil
}

// selectScrapeTrack prefers a manually created English transcript, then an
// auto-generated English one, then anything available.
func selectScrapeTrack(tracks []scrapeTrack) *scrapeTrack {
	for i := range tracks {
		if !tracks[i].isAuto() && strings.HasPrefix(tracks[i].LanguageCode, "en") {
			return &tracks[i]
		}
	}
	for i := range tracks {
		if tracks[i].isAuto() && strings.HasPrefix(tracks[i].LanguageCode, "en") {
			return &tracks[i]
		}
	}
	if len(tracks) > 0 {
		return &tracks[0]
	}
	return nil
}

func (s *ScrapeTranscriptService) fetchTimedText(ctx context.Context, captionURL string) (string, error) {
	captionURL = strings.ReplaceAll(captionURL, "\\u0026", "&")
	captionURL = strings.ReplaceAll(captionURL, `\/`, "/")

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, captionURL, nil)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	return parseCaptionsXML(body)
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}

	var parts []string
	for _, t := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Text))
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", errors.New("captions XML empty")
	}

	return ytutil.CollapseWhitespace(strings.Join(parts, " ")), nil
}

func (s *ScrapeTranscriptService) getCaptionsViaTranscriptAPI(videoID string) (text, language string, err error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	language = "en"
	if err != nil {
		// Any available language
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		language = "unknown"
		if err != nil {
			return "", "", fmt.Errorf("transcript API: %w", err)
		}
	}

	if len(transcript.Entries) == 0 {
		return "", "", errors.New("transcript API returned empty track")
	}

	var b strings.Builder
	for _, entry := range transcript.Entries {
		t := strings.TrimSpace(entry.Text)
		if t == "" {
			continue
		}
		b.WriteString(t)
		b.WriteString(" ")
	}

	cleaned := ytutil.CollapseWhitespace(b.String())
	if cleaned == "" {
		return "", "", errors.New("transcript API track resolved to empty text")
	}
	return cleaned, language, nil
}
