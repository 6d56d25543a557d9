package mock

import (
	"context"
	"sync"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/provider"
)

// NoFace marca um quadro do roteiro sem rosto
const NoFace = -1.0

// DefaultScript simula olhos abertos com uma piscada a cada oito quadros
var DefaultScript = []float64{0.34, 0.33, 0.35, 0.34, 0.21, 0.18, 0.33, 0.34}

// Provider implementa provider.LandmarkProvider para testes e desenvolvimento.
// Cada chamada devolve o próximo EAR do roteiro, em ciclo.
type Provider struct {
	mu     sync.Mutex
	script []float64
	next   int
}

// New cria um MockProvider com o roteiro informado (ou DefaultScript)
func New(script ...float64) *Provider {
	if len(script) == 0 {
		script = DefaultScript
	}

	s := make([]float64, len(script))
	copy(s, script)

	return &Provider{script: s}
}

func (p *Provider) Name() string {
	return "mock"
}

// DetectEyes ignora a imagem e devolve olhos sintéticos com o EAR roteirizado
func (p *Provider) DetectEyes(ctx context.Context, image []byte) ([]provider.FaceEyes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, domain.ErrInvalidFrame
	}

	p.mu.Lock()
	ear := p.script[p.next]
	p.next = (p.next + 1) % len(p.script)
	p.mu.Unlock()

	if ear < 0 {
		return []provider.FaceEyes{}, nil
	}

	return []provider.FaceEyes{
		{
			Left:  EyeWithEAR(ear),
			Right: EyeWithEAR(ear),
			BoundingBox: provider.BoundingBox{
				X:      0.1,
				Y:      0.1,
				Width:  0.8,
				Height: 0.8,
			},
			Confidence: 0.99,
		},
	}, nil
}

// Rewind volta o roteiro ao primeiro quadro
func (p *Provider) Rewind() {
	p.mu.Lock()
	p.next = 0
	p.mu.Unlock()
}

// EyeWithEAR builds a unit-width eye whose aspect ratio is exactly ear
func EyeWithEAR(ear float64) domain.EyeLandmarkSet {
	h := ear / 2
	return domain.EyeLandmarkSet{
		{X: 0, Y: 0},
		{X: 1.0 / 3, Y: -h},
		{X: 2.0 / 3, Y: -h},
		{X: 1, Y: 0},
		{X: 2.0 / 3, Y: h},
		{X: 1.0 / 3, Y: h},
	}
}

var _ provider.LandmarkProvider = (*Provider)(nil)
