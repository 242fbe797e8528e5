package station

// Playlist is an ordered sequence of track references plus a cursor to the
// current entry. Insertion order is play order; there is no shuffle or repeat.
//
// Playlist is not safe for concurrent use on its own. Every mutation happens
// under the owning Station's lock, which is the single mutation boundary for
// broadcast state.
type Playlist struct {
	order   []string
	current int // index into order, -1 = no current entry
}

// NewPlaylist creates an empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{current: -1}
}

// Append adds a track reference to the end of the play order.
func (p *Playlist) Append(trackID string) {
	p.order = append(p.order, trackID)
}

// Remove removes a track reference from the play order.
//
// If the removed entry was the current one, the cursor moves to the next
// entry in order (wrapping to the first), or is cleared when the playlist
// becomes empty. Returns whether the entry existed, whether it was current,
// and the ID now under the cursor ("" if none).
func (p *Playlist) Remove(trackID string) (removed bool, wasCurrent bool, newCurrentID string) {
	idx := p.indexOf(trackID)
	if idx < 0 {
		return false, false, p.CurrentID()
	}

	wasCurrent = idx == p.current
	p.order = append(p.order[:idx], p.order[idx+1:]...)

	switch {
	case len(p.order) == 0:
		p.current = -1
	case wasCurrent:
		// The entry after the removed one now sits at idx; wrap past the end.
		p.current = idx % len(p.order)
	case idx < p.current:
		p.current--
	}

	return true, wasCurrent, p.CurrentID()
}

// Advance moves the cursor to the next entry, wrapping to the first after
// the last. Returns the new current ID, or false if the playlist is empty.
func (p *Playlist) Advance() (string, bool) {
	if len(p.order) == 0 {
		p.current = -1
		return "", false
	}
	p.current = (p.current + 1) % len(p.order)
	return p.order[p.current], true
}

// SetCurrent makes trackID the current entry. Selecting a track that was
// never appended is rejected.
func (p *Playlist) SetCurrent(trackID string) error {
	idx := p.indexOf(trackID)
	if idx < 0 {
		return ErrNotInPlaylist
	}
	p.current = idx
	return nil
}

// ClearCurrent drops the cursor without touching the order.
func (p *Playlist) ClearCurrent() {
	p.current = -1
}

// CurrentID returns the ID under the cursor, or "" if none.
func (p *Playlist) CurrentID() string {
	if p.current < 0 || p.current >= len(p.order) {
		return ""
	}
	return p.order[p.current]
}

// Contains reports whether trackID is in the play order.
func (p *Playlist) Contains(trackID string) bool {
	return p.indexOf(trackID) >= 0
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	return len(p.order)
}

// IDs returns a copy of the play order.
func (p *Playlist) IDs() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Restore replaces order and cursor, used when reloading persisted state.
// References that no longer resolve must be filtered by the caller first.
func (p *Playlist) Restore(order []string, currentID string) {
	p.order = append([]string(nil), order...)
	p.current = p.indexOf(currentID)
}

func (p *Playlist) indexOf(trackID string) int {
	if trackID == "" {
		return -1
	}
	for i, id := range p.order {
		if id == trackID {
			return i
		}
	}
	return -1
}
