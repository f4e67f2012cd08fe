package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dalnet/pongbot/internal/pong"
)

const (
	maxEntries = 500

	settingsFile = "settings.yaml"
	repliesFile  = "replies.txt"
	statsFile    = "stats.txt"
)

// LoadSettings reads pong settings saved by SaveSettings. found is false if
// nothing has been saved yet.
func LoadSettings(dataDir string) (s pong.Settings, found bool, err error) {
	data, err := os.ReadFile(filepath.Join(dataDir, settingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return pong.Settings{}, false, nil
		}
		return pong.Settings{}, false, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return pong.Settings{}, false, fmt.Errorf("failed to parse %s: %w", settingsFile, err)
	}
	return s, true, nil
}

// SaveSettings persists pong settings so they survive a restart
func SaveSettings(dataDir string, s pong.Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	path := filepath.Join(dataDir, settingsFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// RemoveSettings forgets saved settings. A missing file is not an error.
func RemoveSettings(dataDir string) error {
	err := os.Remove(filepath.Join(dataDir, settingsFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadReplies reads the canned-reply history, newest first
func LoadReplies(dataDir string) ([]string, error) {
	lines, err := readLines(filepath.Join(dataDir, repliesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	// File stores oldest first
	return reverse(lines), nil
}

// SaveReplies writes the canned-reply history. Expects newest first.
func SaveReplies(dataDir string, replies []string) error {
	return writeLines(filepath.Join(dataDir, repliesFile), reverse(replies))
}

// AddReply prepends an entry, dropping the oldest past maxEntries
func AddReply(replies []string, entry string) []string {
	replies = append([]string{entry}, replies...)
	if len(replies) > maxEntries {
		replies = replies[:maxEntries]
	}
	return replies
}

// LoadStats reads the admin command log, oldest first
func LoadStats(dataDir string) ([]string, error) {
	lines, err := readLines(filepath.Join(dataDir, statsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return lines, nil
}

// SaveStats writes the admin command log (max 500 entries)
func SaveStats(dataDir string, stats []string) error {
	if len(stats) > maxEntries {
		stats = stats[len(stats)-maxEntries:]
	}
	return writeLines(filepath.Join(dataDir, statsFile), stats)
}

// AddStat appends an entry, dropping the oldest past maxEntries
func AddStat(stats []string, entry string) []string {
	stats = append(stats, entry)
	if len(stats) > maxEntries {
		stats = stats[1:]
	}
	return stats
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			file.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func reverse(s []string) []string {
	result := make([]string, len(s))
	for i, v := range s {
		result[len(s)-1-i] = v
	}
	return result
}
