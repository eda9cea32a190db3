package models

type Metafile struct {
	Announce     string     `bencode:"announce"`
	AnnounceList [][]string `bencode:"announce-list"`
	Info         Info       `bencode:"info"`
}

type Info struct {
	Name         string `bencode:"name"`
	Length       int    `bencode:"length"`
	PieceLength  int    `bencode:"piece length"`
	Pieces       string `bencode:"pieces"`
	PiecesHashes []Hash `bencode:"-"`
	Files        []File `bencode:"files,omitempty"`
}

type File struct {
	Length int      `bencode:"length"`
	Path   []string `bencode:"path"`
}

type Hash struct {
	Hash []byte
}

func (h Hash) String() string {
	return string(h.Hash)
}

// Layout is the shape of the shared file as the swarm sees it.
type Layout struct {
	NumPieces      int
	BlocksPerPiece int
}

// Layout derives the swarm layout from the piece hashes and piece length.
func (m Metafile) Layout() Layout {
	blocks := (m.Info.PieceLength + BlockSize - 1) / BlockSize
	return Layout{NumPieces: len(m.Info.PiecesHashes), BlocksPerPiece: max(blocks, 1)}
}
