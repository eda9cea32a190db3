package decoder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/WendelHime/tftsim/internal/shared/models"
	"github.com/jackpal/bencode-go"
)

const hashLength = 20

var ErrInvalidPieces = errors.New("invalid pieces field")
var ErrInvalidPieceLength = errors.New("invalid piece length")

type MetafileDecoder interface {
	Decode(io.Reader) (models.Metafile, error)
}

type decoder struct {
	log *slog.Logger
}

func NewDecoder(logger *slog.Logger) MetafileDecoder {
	return decoder{log: logger}
}

func (d decoder) Decode(torrent io.Reader) (models.Metafile, error) {
	var response models.Metafile
	err := bencode.Unmarshal(torrent, &response)
	if err != nil {
		d.log.Error("failed to decode torrent", slog.Any("error", err))
		return response, err
	}

	if response.Info.PieceLength <= 0 {
		return response, fmt.Errorf("%w: %d", ErrInvalidPieceLength, response.Info.PieceLength)
	}

	response.Info.PiecesHashes, err = calculatePiecesHashes(response.Info.Pieces)
	if err != nil {
		d.log.Error("failed to calculate pieces hashes", slog.Any("error", err))
		return response, err
	}

	if response.Info.Length > 0 {
		response.Info.Files = []models.File{{Length: response.Info.Length, Path: []string{response.Info.Name}}}
	}

	d.log.Info("decoded metafile",
		slog.String("name", response.Info.Name),
		slog.Int("pieces", len(response.Info.PiecesHashes)),
		slog.Int("piece_length", response.Info.PieceLength))
	return response, nil
}

func calculatePiecesHashes(pieces string) ([]models.Hash, error) {
	if len(pieces)%hashLength != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidPieces, len(pieces), hashLength)
	}

	piecesHashes := make([]models.Hash, 0, len(pieces)/hashLength)
	reader := strings.NewReader(pieces)
	for {
		hash, err := ReadBytes(reader, hashLength)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		piecesHashes = append(piecesHashes, models.Hash{Hash: hash})
	}

	return piecesHashes, nil
}
