package models

// History is one peer's append-only view of past rounds. Downloads[r] holds
// the downloads delivered to the peer in round r, Uploads[r] the uploads it
// granted.
type History struct {
	Downloads [][]Download
	Uploads   [][]Upload
}

func (h History) CurrentRound() int {
	return len(h.Downloads)
}

// Round returns the downloads of round r, or nil when r is out of range.
func (h History) Round(r int) []Download {
	if r < 0 || r >= len(h.Downloads) {
		return nil
	}
	return h.Downloads[r]
}

// LastRounds returns up to n of the most recent rounds, newest first.
func (h History) LastRounds(n int) [][]Download {
	current := h.CurrentRound()
	n = min(n, current)
	if n <= 0 {
		return nil
	}
	rounds := make([][]Download, 0, n)
	for r := current - 1; r >= current-n; r-- {
		rounds = append(rounds, h.Downloads[r])
	}
	return rounds
}

func (h *History) Append(downloads []Download, uploads []Upload) {
	h.Downloads = append(h.Downloads, downloads)
	h.Uploads = append(h.Uploads, uploads)
}
