package suggest

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"geotag/internal/geo"
)

// galleryMagic opens every gallery file; the trailing byte versions the layout.
var galleryMagic = [8]byte{'G', 'E', 'O', 'G', 'A', 'L', '0', '1'}

// Gallery is the model's GPS candidate set: coordinates with
// precomputed, L2-normalized location embeddings and the logit scale
// exported alongside the image encoder.
//
// File layout, all little-endian:
//
//	magic   8 bytes  "GEOGAL01"
//	count   uint32   number of locations
//	dim     uint32   embedding dimension
//	scale   float32  logit scale
//	coords  count * 2 float32 (lat, lon)
//	embeds  count * dim float32, row-major
type Gallery struct {
	points []geo.Point
	emb    []float32
	dim    int
	scale  float32
}

// NewGallery builds a gallery from count points and count*dim embedding
// values. Embeddings are L2-normalized row by row.
func NewGallery(points []geo.Point, embeddings []float32, dim int, scale float32) (*Gallery, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("gallery: no points")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("gallery: dimension must be positive, got %d", dim)
	}
	if len(embeddings) != len(points)*dim {
		return nil, fmt.Errorf("gallery: %d points with dim %d need %d embedding values, got %d",
			len(points), dim, len(points)*dim, len(embeddings))
	}
	if scale <= 0 {
		return nil, fmt.Errorf("gallery: logit scale must be positive, got %v", scale)
	}
	emb := make([]float32, len(embeddings))
	copy(emb, embeddings)
	for i := 0; i < len(points); i++ {
		normalize(emb[i*dim : (i+1)*dim])
	}
	return &Gallery{points: points, emb: emb, dim: dim, scale: scale}, nil
}

// Len returns the number of gallery locations.
func (g *Gallery) Len() int { return len(g.points) }

// Dim returns the embedding dimension.
func (g *Gallery) Dim() int { return g.dim }

// Point returns the i-th gallery location.
func (g *Gallery) Point(i int) geo.Point { return g.points[i] }

// TopK scores an L2-normalized image embedding against every gallery
// entry and returns the k highest-probability candidates, descending.
// Probabilities are the softmax of scale-multiplied cosine similarities
// over the whole gallery.
func (g *Gallery) TopK(embed []float32, k int) ([]Candidate, error) {
	if len(embed) != g.dim {
		return nil, fmt.Errorf("gallery: embedding dimension %d, want %d", len(embed), g.dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("gallery: top-k must be at least 1, got %d", k)
	}
	if k > len(g.points) {
		k = len(g.points)
	}

	logits := make([]float64, len(g.points))
	maxLogit := math.Inf(-1)
	for i := range g.points {
		row := g.emb[i*g.dim : (i+1)*g.dim]
		var dot float64
		for j, v := range row {
			dot += float64(v) * float64(embed[j])
		}
		logits[i] = float64(g.scale) * dot
		if logits[i] > maxLogit {
			maxLogit = logits[i]
		}
	}

	var sum float64
	for i, l := range logits {
		logits[i] = math.Exp(l - maxLogit)
		sum += logits[i]
	}

	best := topIndices(logits, k)
	cands := make([]Candidate, len(best))
	for i, idx := range best {
		cands[i] = Candidate{
			Lat:         g.points[idx].Lat,
			Lon:         g.points[idx].Lon,
			Probability: logits[idx] / sum,
		}
	}
	return cands, nil
}

// topIndices returns the indices of the k largest scores, descending.
func topIndices(scores []float64, k int) []int {
	best := make([]int, 0, k)
	for i, s := range scores {
		pos := len(best)
		for pos > 0 && s > scores[best[pos-1]] {
			pos--
		}
		if pos >= k {
			continue
		}
		if len(best) < k {
			best = append(best, 0)
		}
		copy(best[pos+1:], best[pos:len(best)-1])
		best[pos] = i
	}
	return best
}

// normalize scales v to unit L2 length in place. Zero vectors are left as-is.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// LoadGallery reads a gallery file written by WriteFile.
func LoadGallery(path string) (*Gallery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gallery: %w", err)
	}
	if len(data) < 20 {
		return nil, fmt.Errorf("gallery: file too small: %s", path)
	}
	if [8]byte(data[:8]) != galleryMagic {
		return nil, fmt.Errorf("gallery: bad magic in %s", path)
	}
	count := int(binary.LittleEndian.Uint32(data[8:12]))
	dim := int(binary.LittleEndian.Uint32(data[12:16]))
	scale := math.Float32frombits(binary.LittleEndian.Uint32(data[16:20]))
	if count <= 0 || dim <= 0 {
		return nil, fmt.Errorf("gallery: invalid header in %s: count=%d dim=%d", path, count, dim)
	}

	body := data[20:]
	want := count*2*4 + count*dim*4
	if len(body) != want {
		return nil, fmt.Errorf("gallery: length mismatch in %s: have %d body bytes, want %d", path, len(body), want)
	}

	points := make([]geo.Point, count)
	off := 0
	for i := range points {
		points[i].Lat = float64(math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4])))
		points[i].Lon = float64(math.Float32frombits(binary.LittleEndian.Uint32(body[off+4 : off+8])))
		off += 8
	}

	emb := make([]float32, count*dim)
	for i := range emb {
		emb[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
		off += 4
	}

	if scale <= 0 {
		return nil, fmt.Errorf("gallery: invalid logit scale %v in %s", scale, path)
	}
	return &Gallery{points: points, emb: emb, dim: dim, scale: scale}, nil
}

// WriteFile writes the gallery in the binary layout LoadGallery reads.
// The write goes through a temp file and a rename.
func (g *Gallery) WriteFile(path string) error {
	buf := make([]byte, 20+len(g.points)*8+len(g.emb)*4)
	copy(buf[:8], galleryMagic[:])
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(g.points)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(g.dim))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.scale))

	off := 20
	for _, p := range g.points {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(float32(p.Lat)))
		binary.LittleEndian.PutUint32(buf[off+4:off+8], math.Float32bits(float32(p.Lon)))
		off += 8
	}
	for _, v := range g.emb {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("gallery: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("gallery: %w", err)
	}
	return nil
}
