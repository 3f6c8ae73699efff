package application

import (
	"fmt"
	"strings"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/config"
)

// ModelDefaults 三个短期利率模型的默认参数
type ModelDefaults struct {
	Vasicek        domain.Vasicek
	HullWhite      domain.HullWhite
	BlackDermanToy domain.BlackDermanToy
}

// NewModelDefaults 由配置构造模型参数
func NewModelDefaults(cfg config.RateModelsConfig) (ModelDefaults, error) {
	v, err := domain.NewVasicek(cfg.Vasicek.Speed, cfg.Vasicek.LongRun, cfg.Vasicek.Sigma)
	if err != nil {
		return ModelDefaults{}, err
	}
	hw, err := domain.NewHullWhite(cfg.HullWhite.Speed, cfg.HullWhite.Sigma, cfg.HullWhite.ForwardRate)
	if err != nil {
		return ModelDefaults{}, err
	}
	bdt, err := domain.NewBlackDermanToy(cfg.BlackDermanToy.Sigma)
	if err != nil {
		return ModelDefaults{}, err
	}
	return ModelDefaults{Vasicek: v, HullWhite: hw, BlackDermanToy: bdt}, nil
}

// DefaultModels Vasicek(0.1, 0.05, 0.01)、Hull-White(0.1, 0.01, f=0.05)、BDT(0.2)
func DefaultModels() ModelDefaults {
	return ModelDefaults{
		Vasicek:        domain.Vasicek{Speed: 0.1, LongRun: 0.05, Sigma: 0.01},
		HullWhite:      domain.HullWhite{Speed: 0.1, Sigma: 0.01, ForwardRate: 0.05},
		BlackDermanToy: domain.BlackDermanToy{Sigma: 0.2},
	}
}

// Model 按名称取模型
func (d ModelDefaults) Model(name domain.RateModelName) (domain.RateModel, error) {
	switch name {
	case domain.RateModelVasicek:
		return d.Vasicek, nil
	case domain.RateModelHullWhite:
		return d.HullWhite, nil
	case domain.RateModelBlackDermanToy:
		return d.BlackDermanToy, nil
	default:
		return nil, fmt.Errorf("%w: unknown rate model %q", domain.ErrInvalidParameter, name)
	}
}

// ModelLabel 展示名，如 "Monte Carlo with Hull-White rates"
func ModelLabel(name domain.RateModelName) string {
	return "Monte Carlo with " + titleCase(string(name), "-") + " rates"
}

// comparisonName 比较结果中的模型名，如 "Hull White"
func comparisonName(name domain.RateModelName) string {
	return titleCase(string(name), " ")
}

func titleCase(s, sep string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, sep)
}
