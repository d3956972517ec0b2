// Command pedpop-cli drives PedPop+ distributed key generation, refresh,
// and resharing as an in-process simulation: every participant runs as its
// own goroutine, connected by a shared in-memory round.Bus. There is no
// network transport here — see spec section 5's "messaging substrate" for
// what a real transport would need to provide to Channel.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/luxfi/pedpop/internal/round"
	"github.com/luxfi/pedpop/internal/testutil"
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/pedpop"
)

var (
	curveType  string
	numParties int
	threshold  int
	outputFile string
	inputFile  string
	addParty   uint32
	newN       int
	newT       int

	rootCmd = &cobra.Command{
		Use:   "pedpop-cli",
		Short: "Simulate PedPop+ distributed key generation, refresh, and resharing",
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Run a fresh PedPop+ DKG across N simulated participants",
		RunE:  runKeygen,
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Refresh every participant's share without changing pk or the participant set",
		RunE:  runRefresh,
	}

	reshareCmd = &cobra.Command{
		Use:   "reshare",
		Short: "Reshare an existing key to a new participant set and/or threshold",
		RunE:  runReshare,
	}
)

func init() {
	keygenCmd.Flags().StringVarP(&curveType, "curve", "c", "secp256k1", "secp256k1, curve25519, bls12-381-g2")
	keygenCmd.Flags().IntVarP(&numParties, "parties", "n", 4, "total participants N")
	keygenCmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "reconstruction threshold T")
	keygenCmd.Flags().StringVarP(&outputFile, "output", "o", "pedpop-out.json", "output file")

	refreshCmd.Flags().StringVarP(&inputFile, "input", "i", "", "keygen output file to refresh (required)")
	refreshCmd.Flags().StringVarP(&outputFile, "output", "o", "pedpop-refreshed.json", "output file")
	refreshCmd.MarkFlagRequired("input")

	reshareCmd.Flags().StringVarP(&inputFile, "input", "i", "", "prior keygen output file (omit for a brand-new joiner)")
	reshareCmd.Flags().IntVar(&newN, "new-parties", 0, "new total participant count N' (required)")
	reshareCmd.Flags().IntVar(&newT, "new-threshold", 0, "new threshold T' (required)")
	reshareCmd.Flags().Uint32Var(&addParty, "add-id", 0, "participant id to add as a brand-new joiner (0 = none)")
	reshareCmd.Flags().StringVarP(&outputFile, "output", "o", "pedpop-reshared.json", "output file")
	reshareCmd.MarkFlagRequired("new-parties")
	reshareCmd.MarkFlagRequired("new-threshold")

	rootCmd.AddCommand(keygenCmd, refreshCmd, reshareCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func getCurve(name string) (curve.Curve, error) {
	switch strings.ToLower(name) {
	case "secp256k1":
		return curve.Secp256k1{}, nil
	case "curve25519", "ed25519":
		return curve.Curve25519{}, nil
	case "bls12-381-g2", "bls12381g2", "bls":
		return curve.BLS12381G2{}, nil
	default:
		return nil, fmt.Errorf("unknown curve: %s", name)
	}
}

// outputRecord is the CLI's own JSON envelope; pedpop.KeygenOutput itself
// only knows the compact binary wire format of spec section 6, which is
// what actually gets hex-encoded into Shares.
type outputRecord struct {
	Curve        string            `json:"curve"`
	PublicKeyHex string            `json:"public_key"`
	Shares       map[string]string `json:"shares"` // participant id -> hex-encoded wire output
}

func writeOutputs(path string, outputs map[party.ID]*pedpop.KeygenOutput) error {
	rec := outputRecord{Shares: make(map[string]string, len(outputs))}
	for id, out := range outputs {
		wire, err := out.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode output for %s: %w", id, err)
		}
		rec.Shares[id.String()] = hex.EncodeToString(wire)
		if rec.Curve == "" {
			rec.Curve = out.Group.Name()
			pkBytes, err := out.PublicKey.MarshalBinary()
			if err != nil {
				return fmt.Errorf("encode public key: %w", err)
			}
			rec.PublicKeyHex = hex.EncodeToString(pkBytes)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// readOutputs decodes a prior CLI output file. The curve and parameters are
// not guessed: each share's wire encoding carries its own group tag (spec
// section 6), so KeygenOutput.UnmarshalBinary recovers them directly.
func readOutputs(path string) (map[party.ID]*pedpop.KeygenOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec outputRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	out := make(map[party.ID]*pedpop.KeygenOutput, len(rec.Shares))
	for idStr, hexWire := range rec.Shares {
		wire, err := hex.DecodeString(hexWire)
		if err != nil {
			return nil, fmt.Errorf("decode share for %s: %w", idStr, err)
		}
		var ko pedpop.KeygenOutput
		if err := ko.UnmarshalBinary(wire); err != nil {
			return nil, fmt.Errorf("unmarshal share for %s: %w", idStr, err)
		}
		var n uint64
		if _, err := fmt.Sscanf(idStr, "%d", &n); err != nil {
			return nil, fmt.Errorf("bad participant id %q: %w", idStr, err)
		}
		out[party.ID(n)] = &ko
	}
	return out, nil
}

type keygenResult struct {
	id  party.ID
	out *pedpop.KeygenOutput
	err error
}

func runKeygen(cmd *cobra.Command, args []string) error {
	group, err := getCurve(curveType)
	if err != nil {
		return err
	}
	if numParties <= 0 || threshold <= 0 {
		return fmt.Errorf("parties and threshold must be positive")
	}
	ids := testutil.PartyIDs(numParties)
	bus := round.NewBus(ids)

	results := make(chan keygenResult, len(ids))
	for _, id := range ids {
		id := id
		go func() {
			out, err := pedpop.Keygen(context.Background(), bus, group, ids, id, uint32(threshold), nil)
			results <- keygenResult{id, out, err}
		}()
	}
	outputs := make(map[party.ID]*pedpop.KeygenOutput, len(ids))
	for range ids {
		r := <-results
		if r.err != nil {
			return fmt.Errorf("participant %s: %w", r.id, r.err)
		}
		outputs[r.id] = r.out
	}
	if err := writeOutputs(outputFile, outputs); err != nil {
		return err
	}
	fmt.Printf("keygen complete: %d participants over %s\n", len(outputs), group.Name())
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	prior, err := readOutputs(inputFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputFile, err)
	}

	ids := make(party.IDSlice, 0, len(prior))
	for id := range prior {
		ids = append(ids, id)
	}
	bus := round.NewBus(ids)
	results := make(chan keygenResult, len(prior))
	for id, p := range prior {
		id, p := id, p
		go func() {
			out, err := pedpop.Refresh(context.Background(), bus, p, id, nil)
			results <- keygenResult{id, out, err}
		}()
	}
	outputs := make(map[party.ID]*pedpop.KeygenOutput, len(prior))
	for range prior {
		r := <-results
		if r.err != nil {
			return fmt.Errorf("participant %s: %w", r.id, r.err)
		}
		outputs[r.id] = r.out
	}
	if err := writeOutputs(outputFile, outputs); err != nil {
		return err
	}
	fmt.Printf("refresh complete: %d participants\n", len(outputs))
	return nil
}

func runReshare(cmd *cobra.Command, args []string) error {
	if newN <= 0 || newT <= 0 {
		return fmt.Errorf("--new-parties and --new-threshold are required")
	}
	if inputFile == "" {
		return fmt.Errorf("--input is required to determine the curve and old signer set")
	}
	prior, err := readOutputs(inputFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputFile, err)
	}

	var group curve.Curve
	oldIDs := make(party.IDSlice, 0, len(prior))
	var oldT uint32
	var oldPK curve.Point
	for id, out := range prior {
		oldIDs = append(oldIDs, id)
		group = out.Group
		oldT = out.Parameters.T
		oldPK = out.PublicKey
	}
	oldIDs = oldIDs.Sorted()

	newIDs := append(party.IDSlice{}, oldIDs...)
	if addParty != 0 {
		newIDs = append(newIDs, party.ID(addParty))
	}
	newIDs = newIDs.Sorted()
	if len(newIDs) != newN {
		return fmt.Errorf("--new-parties=%d does not match the %d participants of the old set plus --add-id", newN, len(newIDs))
	}

	bus := round.NewBus(newIDs)
	results := make(chan keygenResult, len(newIDs))
	for _, id := range newIDs {
		id := id
		var p *pedpop.KeygenOutput
		if v, ok := prior[id]; ok {
			p = v
		}
		go func() {
			out, err := pedpop.Reshare(context.Background(), bus, group, oldIDs, oldT, oldPK, p, newIDs, id, uint32(newT), nil)
			results <- keygenResult{id, out, err}
		}()
	}
	outputs := make(map[party.ID]*pedpop.KeygenOutput, len(newIDs))
	for range newIDs {
		r := <-results
		if r.err != nil {
			return fmt.Errorf("participant %s: %w", r.id, r.err)
		}
		outputs[r.id] = r.out
	}
	if err := writeOutputs(outputFile, outputs); err != nil {
		return err
	}
	fmt.Printf("reshare complete: %d participants\n", len(outputs))
	return nil
}
