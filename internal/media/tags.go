package media

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dhowden/tag"
	"github.com/disintegration/imaging"

	"audio-toolkit/internal/logging"
)

// CoverSize is the bounding box cover art is fitted into before delivery.
const CoverSize = 300

// ErrNoTags indicates the input carries no parsable tag data.
var ErrNoTags = errors.New("no tags found")

// ErrNoCoverArt indicates the input has tags but no embedded picture.
var ErrNoCoverArt = errors.New("no cover art")

// Tags is the embedded metadata of one audio file.
type Tags struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	AlbumArtist string `json:"album_artist,omitempty"`
	Composer    string `json:"composer,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Year        int    `json:"year,omitempty"`
	Track       int    `json:"track,omitempty"`
	TotalTracks int    `json:"total_tracks,omitempty"`
	Disc        int    `json:"disc,omitempty"`
	TagFormat   string `json:"tag_format,omitempty"`
	FileType    string `json:"file_type,omitempty"`
	HasCoverArt bool   `json:"has_cover_art"`
}

// CoverArt is a resized embedded picture ready for delivery.
type CoverArt struct {
	Data []byte
	MIME string
}

// ReadTags parses the embedded tags of the uploaded bytes.
func ReadTags(data []byte) (Tags, error) {
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		logging.Debug("Tag parse failed: %v", err)
		return Tags{}, ErrNoTags
	}

	track, totalTracks := meta.Track()
	disc, _ := meta.Disc()

	return Tags{
		Title:       meta.Title(),
		Artist:      meta.Artist(),
		Album:       meta.Album(),
		AlbumArtist: meta.AlbumArtist(),
		Composer:    meta.Composer(),
		Genre:       meta.Genre(),
		Year:        meta.Year(),
		Track:       track,
		TotalTracks: totalTracks,
		Disc:        disc,
		TagFormat:   string(meta.Format()),
		FileType:    string(meta.FileType()),
		HasCoverArt: meta.Picture() != nil,
	}, nil
}

// ReadCoverArt extracts the embedded picture, fits it into a CoverSize
// bounding box, and re-encodes it as JPEG. Pictures already smaller than
// the box are left at their original size.
func ReadCoverArt(data []byte) (CoverArt, error) {
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return CoverArt{}, ErrNoTags
	}

	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return CoverArt{}, ErrNoCoverArt
	}

	img, err := imaging.Decode(bytes.NewReader(pic.Data), imaging.AutoOrientation(true))
	if err != nil {
		return CoverArt{}, fmt.Errorf("failed to decode cover art: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > CoverSize || bounds.Dy() > CoverSize {
		img = imaging.Fit(img, CoverSize, CoverSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return CoverArt{}, fmt.Errorf("failed to encode cover art: %w", err)
	}

	logging.Debug("Cover art: %dx%d source, %d bytes encoded", bounds.Dx(), bounds.Dy(), buf.Len())
	return CoverArt{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}
