package services

import (
	"encoding/json"
	"fmt"

	"credit-advisor/backend/pkg/models"
)

// Prompt templates for the narration, retrieval and re-ranking calls. The
// feature definitions mirror the fields of the stored user records.

const featureDefinitions = `Month: Represents the month of the year
Name: Represents the name of a human
Age: Represents the age of the human
Occupation: Represents the occupation of the human
Annual_Income: Represents the annual income of the human
Monthly_Inhand_Salary: Represents the monthly base salary of a human
Num_Bank_Accounts: Represents the number of bank accounts a human holds
Num_Credit_Card: Represents the number of other credit cards held by a human
Interest_Rate: Represents the interest rate on credit card
Num_of_Loan: Represents the number of loans taken from the bank
Type_of_Loan: Represents the types of loan taken by a human
Delay_from_due_date: Represents the average number of days delayed from the payment date
Num_of_Delayed_Payment: Represents the average number of payments delayed by a human
Changed_Credit_Limit: Represents the percentage change in credit card limit
Num_Credit_Inquiries: Represents the number of credit card inquiries
Credit_Mix: Represents the classification of the mix of credits
Outstanding_Debt: Represents the remaining debt to be paid (in USD)
Credit_Utilization_Ratio: Represents the utilization ratio of credit card
Credit_History_Age: Represents the age of credit history of the human
Payment_of_Min_Amount: Represents whether only the minimum amount was paid by the human
Total_EMI_per_month: Represents the monthly EMI payments (in USD)
Amount_invested_monthly: Represents the monthly amount invested by the customer (in USD)
Payment_Behaviour: Represents the payment behavior of the customer
Monthly_Balance: Represents the monthly balance amount of the customer (in USD)`

func narrationPrompt(profileIP models.FeatureProfile, pred models.HealthLabel, limit int64, featureImportance string) string {
	return fmt.Sprintf(`##Instruction:
- Take into account the Definitions of various feature fields and their respective values given as input to the AI/ML model that is used to predict a person's Credit Score Health.
- Provide a detailed reason in layman language as to why a Credit request was rejected or processed given the profile of the candidate.

##Definitions:
%s

##Feature importance of the model used:
%s

##Values for given profile used to predict the Result (Credit Score Profile) with a reason:
%s

## Model Inference Results:
- Credit Health=%s
- Processed Credit Limit for the user=%d

Explain the Decision for Credit Score Profile and Processed Credit Limit within 250 words in points:[Reason]`,
		featureDefinitions, featureImportance, encodeProfile(profileIP), pred, limit)
}

func retrievalPrompt(profile string, profileIP models.FeatureProfile, pred models.HealthLabel, limit int64) string {
	return fmt.Sprintf(`## ML Model Inference Results on User Profile:
- Credit Health=%s
- Processed Credit Limit for the user=%d

## User profile:
%s

##Values for given user profile used to predict the Credit Score Profile:
%s

##Instruction: Given the user profile, recommend credit cards that will best fit the user profile.
- Take into account user annual income, occupation and credit mix while preparing the search term to query the vector search.`,
		pred, limit, profile, encodeProfile(profileIP))
}

func rerankPrompt(profile string, candidates []models.CardSuggestion) string {
	suggestions := ""
	for _, c := range candidates {
		suggestions += fmt.Sprintf("- Card name:%s\n  Card Features:%s\n", c.Name, c.Features)
	}
	return fmt.Sprintf(`##Instruction:
- Given the user profile and recommended credit cards, select the cards that best fit the user profile.
- Reason as to why each credit card is suggested to the user.
- Provide product features to help the user choose.

## User profile:
%s

## Credit card Recommendations:
%s

## Recommendations=Output as Json with card name as Key and concise summary of card to upsell as Value:
{"CardName1":"personalized_product_description_1","CardName2":"personalized_product_description_2",...}`,
		profile, suggestions)
}

// encodeProfile renders the feature mapping deterministically for prompts.
func encodeProfile(profileIP models.FeatureProfile) string {
	payload, err := json.Marshal(profileIP)
	if err != nil {
		return fmt.Sprintf("%v", profileIP)
	}
	return string(payload)
}
