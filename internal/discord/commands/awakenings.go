package commands

// awakeningShortNames abbreviates awakening skill names for the info
// rows. Names missing from the map are shown in full.
var awakeningShortNames = map[string]string{
	"Enhanced Fire Orbs":  "R-OE",
	"Enhanced Water Orbs": "B-OE",
	"Enhanced Wood Orbs":  "G-OE",
	"Enhanced Light Orbs": "L-OE",
	"Enhanced Dark Orbs":  "D-OE",
	"Enhanced Heal Orbs":  "H-OE",

	"Enhanced Fire Att.":  "R-RE",
	"Enhanced Water Att.": "B-RE",
	"Enhanced Wood Att.":  "G-RE",
	"Enhanced Light Att.": "L-RE",
	"Enhanced Dark Att.":  "D-RE",

	"Enhanced HP":     "HP",
	"Enhanced Attack": "ATK",
	"Enhanced Heal":   "RCV",

	"Auto-Recover":          "AUTO-RECOVER",
	"Skill Boost":           "SB",
	"Resistance-Skill Bind": "SBR",
	"Two-Pronged Attack":    "TPA",
	"Multi Boost":           "MULTI-BOOST",
	"Recover Bind":          "RCV-BIND",
	"Extend Time":           "TE",

	"Resistance-Bind":    "RES-BIND",
	"Resistance-Dark":    "RES-DARK",
	"Resistance-Poison":  "RES-POISON",
	"Resistance-Jammers": "RES-JAMMER",

	"Reduce Fire Damage":  "R-RES",
	"Reduce Water Damage": "B-RES",
	"Reduce Wood Damage":  "G-RES",
	"Reduce Light Damage": "L-RES",
	"Reduce Dark Damage":  "D-RES",

	"Healer Killer":   "K-HEALER",
	"Machine Killer":  "K-MACHINE",
	"Dragon Killer":   "K-DRAGON",
	"Attacker Killer": "K-ATTACKER",
	"Physical Killer": "K-PHYSICAL",
	"God Killer":      "K-GOD",
	"Devil Killer":    "K-DEVIL",
	"Balance Killer":  "K-BALANCE",
}

// AwakeningShortName returns the abbreviation for an awakening skill name,
// or the name itself.
func AwakeningShortName(name string) string {
	if short, ok := awakeningShortNames[name]; ok {
		return short
	}
	return name
}
