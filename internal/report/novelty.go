package report

// MarkNew flags rows that did not appear in the same table of prev and sets
// res.NewEntries. A nil prev marks every row as new.
func MarkNew(res, prev *Result) {
	seenAmp := make(map[string]bool)
	seenOn := make(map[string]bool)
	seenDss := make(map[string]bool)
	if prev != nil {
		for _, r := range prev.TopAmp {
			seenAmp[r.AmpName] = true
		}
		for _, r := range prev.TopOn {
			seenOn[r.OnNode] = true
		}
		for _, r := range prev.TopDss {
			seenDss[r.OnNode] = true
		}
	}

	var n NewEntries
	for i := range res.TopAmp {
		res.TopAmp[i].IsNew = !seenAmp[res.TopAmp[i].AmpName]
		if res.TopAmp[i].IsNew {
			n.NewAmpCount++
		}
	}
	for i := range res.TopOn {
		res.TopOn[i].IsNew = !seenOn[res.TopOn[i].OnNode]
		if res.TopOn[i].IsNew {
			n.NewOnCount++
		}
	}
	for i := range res.TopDss {
		res.TopDss[i].IsNew = !seenDss[res.TopDss[i].OnNode]
		if res.TopDss[i].IsNew {
			n.NewDssCount++
		}
	}
	res.NewEntries = &n
}
