// file: internal/updater/updater.go
// version: 2.0.0
// guid: 2a3b4c5d-6e7f-8a9b-0c1d-2e3f4a5b6c7d

package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

const repo = "jdfalk/audible-tagger"

// UpdateInfo holds the result of an update check.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	Channel         string    `json:"channel"`
	UpdateAvailable bool      `json:"update_available"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitempty"`
	LastChecked     time.Time `json:"last_checked"`
}

// Updater resolves the newest version from GitHub. The stable channel tracks
// tagged releases, the develop channel tracks the tip of main. "dev" builds
// never report an update; they have no version to compare against.
type Updater struct {
	currentVersion string
	apiBase        string
	httpClient     *http.Client

	mu        sync.Mutex
	lastCheck *UpdateInfo
}

// NewUpdater creates an Updater for the given current version.
func NewUpdater(currentVersion string) *Updater {
	return &Updater{
		currentVersion: currentVersion,
		apiBase:        "https://api.github.com",
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// LastCheck returns the most recent update check result, or nil.
func (u *Updater) LastCheck() *UpdateInfo {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastCheck
}

// CheckForUpdate queries GitHub for the latest version on the given channel.
// Unknown channels fall back to stable.
func (u *Updater) CheckForUpdate(channel string) (*UpdateInfo, error) {
	var info *UpdateInfo
	var err error
	if channel == "develop" {
		info, err = u.checkDevelop()
	} else {
		info, err = u.checkStable()
	}
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.lastCheck = info
	u.mu.Unlock()
	return info, nil
}

// apiGet issues an authenticated-style GitHub API request for path and
// decodes the JSON body into out. The caller gets the raw status code so
// 404 (no releases yet) can be handled without an error.
func (u *Updater) apiGet(path string, out any) (int, error) {
	req, err := http.NewRequest(http.MethodGet, u.apiBase+path, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "audible-tagger/"+u.currentVersion)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach GitHub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode GitHub response: %w", err)
	}
	return resp.StatusCode, nil
}

type githubRelease struct {
	TagName     string `json:"tag_name"`
	HTMLURL     string `json:"html_url"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
	Assets      []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

type githubCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

func (u *Updater) latestRelease() (*githubRelease, int, error) {
	var release githubRelease
	status, err := u.apiGet("/repos/"+repo+"/releases/latest", &release)
	if err != nil {
		return nil, status, err
	}
	if status != http.StatusOK {
		return nil, status, nil
	}
	return &release, status, nil
}

func (u *Updater) checkStable() (*UpdateInfo, error) {
	release, status, err := u.latestRelease()
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		// Repo has no releases yet; current version is as good as it gets.
		return u.newInfo("stable", u.currentVersion, "", "", time.Time{}), nil
	}
	if release == nil {
		return nil, fmt.Errorf("GitHub API returned status %d", status)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	published, _ := time.Parse(time.RFC3339, release.PublishedAt)
	return u.newInfo("stable", latest, release.HTMLURL, release.Body, published), nil
}

func (u *Updater) checkDevelop() (*UpdateInfo, error) {
	var commit githubCommit
	status, err := u.apiGet("/repos/"+repo+"/commits/main", &commit)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", status)
	}

	short := commit.SHA
	if len(short) > 7 {
		short = short[:7]
	}
	notes, _, _ := strings.Cut(commit.Commit.Message, "\n")
	committed, _ := time.Parse(time.RFC3339, commit.Commit.Author.Date)
	return u.newInfo("develop", short, commit.HTMLURL, notes, committed), nil
}

func (u *Updater) newInfo(channel, latest, url, notes string, published time.Time) *UpdateInfo {
	return &UpdateInfo{
		CurrentVersion:  u.currentVersion,
		LatestVersion:   latest,
		Channel:         channel,
		UpdateAvailable: latest != u.currentVersion && u.currentVersion != "dev",
		ReleaseURL:      url,
		ReleaseNotes:    notes,
		PublishedAt:     published,
		LastChecked:     time.Now(),
	}
}

// assetName is the per-platform binary name CI attaches to releases.
func assetName() string {
	return fmt.Sprintf("audible-tagger-%s-%s", runtime.GOOS, runtime.GOARCH)
}

// resolveAssetURL finds the download URL for this platform's binary.
func (u *Updater) resolveAssetURL(info *UpdateInfo) (string, error) {
	if info.Channel == "develop" {
		return "", fmt.Errorf("develop channel has no published binaries; use the stable channel for binary updates")
	}

	release, status, err := u.latestRelease()
	if err != nil {
		return "", err
	}
	if release == nil {
		return "", fmt.Errorf("GitHub API returned status %d", status)
	}

	want := assetName()
	for _, asset := range release.Assets {
		if asset.Name == want {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("release has no asset %q for %s/%s", want, runtime.GOOS, runtime.GOARCH)
}

// DownloadAndReplace downloads the release binary for this platform and
// swaps it over the running executable. The old binary moves aside to .old
// until the swap succeeds, so a failed rename can be rolled back.
func (u *Updater) DownloadAndReplace(info *UpdateInfo) error {
	if info == nil || !info.UpdateAvailable {
		return fmt.Errorf("no update available")
	}

	assetURL, err := u.resolveAssetURL(info)
	if err != nil {
		return err
	}
	log.Printf("[INFO] Downloading update from %s", assetURL)

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", "audible-tagger/"+u.currentVersion)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download update: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	newPath := execPath + ".new"
	oldPath := execPath + ".old"

	newFile, err := os.OpenFile(newPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create new binary file: %w", err)
	}
	if _, err := io.Copy(newFile, resp.Body); err != nil {
		newFile.Close()
		os.Remove(newPath)
		return fmt.Errorf("failed to write new binary: %w", err)
	}
	newFile.Close()

	if err := os.Rename(execPath, oldPath); err != nil {
		os.Remove(newPath)
		return fmt.Errorf("failed to move current binary aside: %w", err)
	}
	if err := os.Rename(newPath, execPath); err != nil {
		os.Rename(oldPath, execPath)
		return fmt.Errorf("failed to move new binary into place: %w", err)
	}
	os.Remove(oldPath)

	log.Printf("[INFO] Update applied: %s -> %s", info.CurrentVersion, info.LatestVersion)
	return nil
}

// RestartSelf exits the process so the service manager restarts it with the
// new binary.
func (u *Updater) RestartSelf() error {
	log.Printf("[INFO] Exiting for restart with updated binary")
	os.Exit(0)
	return nil // unreachable
}
