package wallet

const (
	P2PKH = iota
	P2SH_P2WPKH
	P2WPKH
	P2WSH
	P2TR
)

// EstimateTxSize makes an estimation of the virtual size of a transaction
// spending inputs and creating outputs of the given standard script types
// (P2PKH, P2SH(P2WPKH), P2WPKH, P2WSH, P2TR). Only single-key spends are
// accounted for on the input side.
func EstimateTxSize(inScriptTypes, outScriptTypes []int) int {
	baseSize := calcTxBaseSize(inScriptTypes, outScriptTypes)
	totalSize := baseSize + calcTxWitnessSize(inScriptTypes)

	weight := baseSize*3 + totalSize
	vsize := (weight + 3) / 4

	return vsize
}

// EstimateFee returns the fee for a tx with the given number of P2WPKH
// inputs and outputs at satsPerVByte.
func EstimateFee(numInputs, numOutputs int, satsPerVByte uint64) uint64 {
	ins := make([]int, numInputs)
	outs := make([]int, numOutputs)
	for i := range ins {
		ins[i] = P2WPKH
	}
	for i := range outs {
		outs[i] = P2WPKH
	}
	return uint64(EstimateTxSize(ins, outs)) * satsPerVByte
}

var (
	scriptSigSizeByScriptType = map[int]int{
		P2PKH:       108, // len + opcode + sig + opcode + pubkey
		P2SH_P2WPKH: 24,  // len + p2wpkh script
		P2WPKH:      1,   // no scriptsig, still len is serialized
		P2WSH:       1,
		P2TR:        1,
	}
	scriptPubKeySizeByScriptType = map[int]int{
		P2PKH:       26, // len + opcodes (3) + hash(pubkey) + opcodes (2)
		P2SH_P2WPKH: 24, // len + opcodes (2) + hash(script) + opcode
		P2WPKH:      23, // len + opcodes (2) + hash(pubkey)
		P2WSH:       35, // len + opcodes (2) + hash(script)
		P2TR:        35, // len + opcodes (2) + xonly pubkey
	}
	witnessSizeByScriptType = map[int]int{
		P2SH_P2WPKH: 108, // items count + sig + pubkey
		P2WPKH:      108,
		P2TR:        66, // items count + schnorr sig
	}
)

func calcTxBaseSize(inScriptTypes, outScriptTypes []int) int {
	// hash + index + sequence
	inBaseSize := 40
	insSize := 0
	for _, scriptType := range inScriptTypes {
		insSize += inBaseSize + scriptSigSizeByScriptType[scriptType]
	}

	// value
	outBaseSize := 8
	outsSize := 0
	for _, scriptType := range outScriptTypes {
		outsSize += outBaseSize + scriptPubKeySizeByScriptType[scriptType]
	}

	// version + locktime
	return 8 +
		varIntSerializeSize(uint64(len(inScriptTypes))) +
		varIntSerializeSize(uint64(len(outScriptTypes))) +
		insSize + outsSize
}

func calcTxWitnessSize(inScriptTypes []int) int {
	insSize := 0
	hasWitness := false
	for _, scriptType := range inScriptTypes {
		size, ok := witnessSizeByScriptType[scriptType]
		if !ok {
			// empty witness stack
			insSize++
			continue
		}
		hasWitness = true
		insSize += size
	}
	if !hasWitness {
		return 0
	}
	// marker + flag
	return 2 + insSize
}
