package session

import (
	"diag-parser/pkg/types"
)

// Anomaly names reported in a Summary.
const (
	AnomalyNoCipher       = "no_cipher"
	AnomalyCipherMissing  = "cipher_missing"
	AnomalyCMCUnanswered  = "cmc_unanswered"
	AnomalyIMSIUnciphered = "imsi_unciphered"
	AnomalyIMEIUnciphered = "imei_unciphered"
	AnomalyIMEISVInCMC    = "imeisv_in_cmc"
	AnomalyForcedHandover = "forced_handover"
	AnomalyFraudPredict   = "fraud_predict"
	AnomalyCMCDelay       = "cmc_delay"
	AnomalyNoAuth         = "no_auth"
)

// Summary is a closed transaction with its anomaly indicators.
type Summary struct {
	Domain        types.Domain
	RAT           types.RAT
	ForcedRelease bool
	State         State
	CMCDelayFN    uint32
	Anomalies     []string
}

// HasAnomaly reports whether name was flagged.
func (sum Summary) HasAnomaly(name string) bool {
	for _, a := range sum.Anomalies {
		if a == name {
			return true
		}
	}
	return false
}

// Summarize scores the current transaction without ending it.
func (s *Info) Summarize() Summary {
	return s.summarize(false)
}

func (s *Info) summarize(forced bool) Summary {
	st := s.State
	st.CellARFCNs = append([]uint16(nil), s.CellARFCNs...)

	sum := Summary{
		Domain:        s.domain,
		RAT:           s.rat,
		ForcedRelease: forced,
		State:         st,
	}

	flag := func(cond bool, name string) {
		if cond {
			sum.Anomalies = append(sum.Anomalies, name)
		}
	}

	transaction := st.ServReq || st.MT || st.LocUpd || st.Attach || st.RAUpd
	flag(st.Started && transaction && st.Cipher == 0, AnomalyNoCipher)
	flag(st.CipherMissing == CipherMissing, AnomalyCipherMissing)
	flag(st.CipherMissing == CipherArmed, AnomalyCMCUnanswered)
	flag(st.IdenIMSIBC > 0, AnomalyIMSIUnciphered)
	flag(st.IdenIMEIBC > 0, AnomalyIMEIUnciphered)
	flag(st.CMCIMEISV, AnomalyIMEISVInCMC)
	flag(st.ForcedHO, AnomalyForcedHandover)
	flag(st.FC.Predict > 0, AnomalyFraudPredict)

	cmd, comp := st.CMCmdFN.Value(), st.CMCompFirstFN.Value()
	if cmd != 0 && comp != 0 && cmd != types.MaxFN && comp != types.MaxFN {
		sum.CMCDelayFN = (comp + types.MaxFN - cmd) % types.MaxFN
		var limit uint32
		if s.set != nil {
			limit = s.set.maxCMCDelay
		}
		flag(limit > 0 && sum.CMCDelayFN > limit, AnomalyCMCDelay)
	}

	flag(st.Started && st.Cipher != 0 && st.Auth == AuthNone, AnomalyNoAuth)

	return sum
}
