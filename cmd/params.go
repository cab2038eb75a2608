package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/qgpep/internal/verify"
)

func addParamFlags(fs *pflag.FlagSet) {
	fs.Int("n", 0, "Number of iterations (default: the method's reference value)")
	fs.Float64("L", 1, "Smoothness, quadratic-growth or Lipschitz constant")
	fs.Float64("mu", 0, "Strong convexity constant (gd only)")
	fs.Float64("step", 0, "Constant step size (gd and subgradient; 0 selects the default)")
	fs.String("metric", "", "Performance metric: function-value or distance (default: the method's first)")
}

// paramsFrom reads the method parameters, falling back to the method's
// reference experiment for anything not given.
func paramsFrom(vip *viper.Viper, m *verify.Method) verify.Params {
	p := m.Defaults()
	if vip.IsSet("n") {
		p.N = vip.GetInt("n")
	}
	p.L = vip.GetFloat64("L")
	p.Mu = vip.GetFloat64("mu")
	p.Step = vip.GetFloat64("step")
	if metric := vip.GetString("metric"); metric != "" {
		p.Metric = verify.Metric(metric)
	}
	return p
}

// metricLabel renders the bounded quantity the way the guarantees are
// usually written.
func metricLabel(g *verify.Guarantee) string {
	switch {
	case g.Method == "subgradient":
		return "min_i f(x_i)-f_*"
	case g.Params.Metric == verify.Distance:
		return "||x_n - x_*||^2"
	default:
		return "f(x_n)-f_*"
	}
}
