package game

// deal adds up to count random catalog cards to the player's hand. Cards the
// player already holds are skipped; other players' hands are not considered.
func (e *Engine) deal(tx Tx, playerID string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	catalog, err := tx.CardIDs()
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, ErrNoCards
	}
	held, err := tx.Hand(playerID)
	if err != nil {
		return nil, err
	}
	inHand := make(map[string]bool, len(held))
	for _, id := range held {
		inHand[id] = true
	}
	candidates := make([]string, 0, len(catalog))
	for _, id := range catalog {
		if !inHand[id] {
			candidates = append(candidates, id)
		}
	}
	picked := e.sample(candidates, count)
	if len(picked) == 0 {
		return nil, nil
	}
	if err := tx.AddToHand(playerID, picked); err != nil {
		return nil, err
	}
	return picked, nil
}

// topUp refills a hand to HandSize. Running it twice deals nothing the
// second time.
func (e *Engine) topUp(tx Tx, playerID string) (int, error) {
	held, err := tx.Hand(playerID)
	if err != nil {
		return 0, err
	}
	dealt, err := e.deal(tx, playerID, e.rules.HandSize-len(held))
	return len(dealt), err
}

// replaceHand discards the whole hand and deals count fresh cards.
func (e *Engine) replaceHand(tx Tx, playerID string, count int) error {
	if err := tx.ClearHand(playerID); err != nil {
		return err
	}
	_, err := e.deal(tx, playerID, count)
	return err
}

func (e *Engine) pickTheme(tx Tx) (string, error) {
	ids, err := tx.ThemeIDs()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNoThemes
	}
	return ids[e.intN(len(ids))], nil
}

func handCards(tx Tx, playerID string) ([]WordCard, error) {
	ids, err := tx.Hand(playerID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []WordCard{}, nil
	}
	return tx.Cards(ids)
}
