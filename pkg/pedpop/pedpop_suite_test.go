package pedpop_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPedPop(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PedPop+ DKG Suite")
}
