package plugin

// Unbounded is the maximum arity of a command with a trailing TArray.
const Unbounded = -1

// Arity returns the accepted argument counts for a parameter list.
func Arity(params []Argument) (min, max int) {
	var options int
	array := false
	for _, p := range params {
		switch p.Type.Kind {
		case TOption:
			options++
		case TArray:
			array = true
		default:
			min++
		}
	}
	if array {
		return min, Unbounded
	}
	return min, min + options
}

// Pack matches evaluated argument strings to a command's positional
// parameters. The returned slice has one Value per parameter.
func Pack(command string, params []Argument, actuals []string) ([]Value, error) {
	n := len(actuals)
	min, max := Arity(params)
	if n < min || (max != Unbounded && n > max) {
		return nil, &ArityError{Command: command, Min: min, Max: max, Got: n}
	}

	values := make([]Value, 0, len(params))
	for i, p := range params {
		switch p.Type.Kind {
		case TOption:
			if i < n {
				values = append(values, Some(actuals[i]))
			} else {
				values = append(values, None())
			}
		case TArray:
			var rest []string
			if i < n {
				rest = append(rest, actuals[i:]...)
			}
			values = append(values, TextArray(rest))
		default:
			// A required parameter after an optional one can still be short.
			if i >= n {
				return nil, &ArityError{Command: command, Min: min, Max: max, Got: n}
			}
			values = append(values, Text(actuals[i]))
		}
	}
	return values, nil
}
