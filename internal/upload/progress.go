package upload

// Progress values are percentages.
const (
	simulatedCeiling = 90.0
	complete         = 100.0
)

type progressAction int

const (
	actionStart progressAction = iota
	actionTick
	actionSucceeded
	actionFailed
)

// progress holds the two producers of the displayed value: the simulated
// ticker and the server's final answer. The displayed value is their max.
type progress struct {
	simulated   float64
	final       float64
	outstanding bool
}

func (p progress) value() float64 {
	return max(p.simulated, p.final)
}

func reduce(p progress, action progressAction, increment float64) progress {
	switch action {
	case actionStart:
		return progress{outstanding: true}
	case actionTick:
		if !p.outstanding {
			return p
		}
		p.simulated = min(simulatedCeiling, p.simulated+max(0, increment))
		return p
	case actionSucceeded:
		return progress{simulated: p.simulated, final: complete}
	case actionFailed:
		return progress{}
	}
	return p
}
