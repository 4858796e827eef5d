package curvefit_test

import (
	"fmt"
	"os"

	curvefit "github.com/aouyang1/go-curvefit"
	"github.com/aouyang1/go-curvefit/dataset"
)

func ExampleFit() {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{2, 5, 8, 11, 14}
	yErr := dataset.Uniform(len(x), 0.1)

	res, err := curvefit.Fit(x, y, yErr, []float64{0, 0}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("params: %.3f\n", res.Params)
	fmt.Printf("uncertainties: %.4f\n", res.Uncertainties)
	fmt.Printf("degrees of freedom: %d\n", res.Scores.DOF)
	// Output:
	// params: [2.000 3.000]
	// uncertainties: [0.0775 0.0316]
	// degrees of freedom: 3
}

func ExampleFitter_Model() {
	f, err := curvefit.New(nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	if _, err := f.Fit(
		[]float64{-2, -1, 0, 1, 2},
		[]float64{9, 4, 1, 0, 1},
		dataset.Uniform(5, 0.5),
		[]float64{0, 0, 0},
	); err != nil {
		fmt.Println(err)
		return
	}

	m, err := f.Model()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(m.Equation)
	fmt.Println(len(m.Covariance), len(m.Uncertainties))
	// Output:
	// y ~ 1 - 2*x + 1*x^2
	// 3 3
}

func ExampleModel_TablePrint() {
	m := curvefit.Model{
		Equation:      "y ~ 2 + 3*x",
		Params:        []float64{2, 3},
		Uncertainties: []float64{0.0775, 0.0316},
	}
	if err := m.TablePrint(os.Stdout, "", "  "); err != nil {
		fmt.Println(err)
	}
	// Output:
	// Fit:
	//   Fit Time: 0001-01-01 00:00:00 +0000 UTC
	//   Equation: y ~ 2 + 3*x
	// Parameters:
	//    Name Value Uncertainty
	//      p0     2      0.0775
	//      p1     3      0.0316
}
