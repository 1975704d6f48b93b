package hevc

// POCState carries the picture order count derivation state that persists
// across pictures, section 8.3.1. HEVC POC derivation is considerably
// simpler than AVC's three-type scheme: one formula, gated only by whether
// the current picture is an IRAP with NoRaslOutputFlag set.
type POCState struct {
	prevPicOrderCntMsb int
	prevPicOrderCntLsb int
}

// Derive returns the picture order count for a picture with the given
// nal unit type, slice_pic_order_cnt_lsb and NoRaslOutputFlag (true for an
// IDR, a BLA, or the first CRA in the bitstream / after an EOS), and
// advances the persistent state.
func (st *POCState) Derive(sps *SPS, nalType uint8, picOrderCntLsb int, noRaslOutputFlag bool) int {
	if IsIRAP(nalType) && noRaslOutputFlag {
		st.prevPicOrderCntMsb = 0
		st.prevPicOrderCntLsb = picOrderCntLsb
		return picOrderCntLsb
	}

	maxLsb := sps.MaxPicOrderCntLsb()
	prevMsb, prevLsb := st.prevPicOrderCntMsb, st.prevPicOrderCntLsb

	msb := prevMsb
	switch {
	case picOrderCntLsb < prevLsb && prevLsb-picOrderCntLsb >= maxLsb/2:
		msb = prevMsb + maxLsb
	case picOrderCntLsb > prevLsb && picOrderCntLsb-prevLsb > maxLsb/2:
		msb = prevMsb - maxLsb
	}

	poc := msb + picOrderCntLsb

	// prevPicOrderCntMsb/Lsb only advance for reference pictures with
	// TemporalId == 0 that are not RASL/RADL/sub-layer-non-reference,
	// section 8.3.1; the caller is expected to gate calls accordingly (this
	// package does not track TemporalId/sub-layer-non-reference state
	// itself, since that is carried on the NAL header the session layer
	// already has).
	st.prevPicOrderCntMsb = msb
	st.prevPicOrderCntLsb = picOrderCntLsb
	return poc
}
